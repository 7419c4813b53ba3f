package api

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SyndicateTarget is one entry advertised by q=syndicate-to.
type SyndicateTarget struct {
	UID  string `json:"uid" yaml:"uid"`
	Name string `json:"name" yaml:"name"`
}

// LoadSyndicateTargets reads the syndication targets file. A missing file
// just means no targets are configured.
func LoadSyndicateTargets(path string) ([]SyndicateTarget, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read syndication targets: %w", err)
	}

	var targets []SyndicateTarget
	if err := yaml.Unmarshal(raw, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse syndication targets: %w", err)
	}

	return targets, nil
}
