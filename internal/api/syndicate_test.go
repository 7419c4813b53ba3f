package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSyndicateTargets(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "syndicate.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- uid: https://fed.example/@me\n  name: Fediverse\n"), 0644))

	targets, err := LoadSyndicateTargets(file)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "https://fed.example/@me", targets[0].UID)
	assert.Equal(t, "Fediverse", targets[0].Name)
}

func TestLoadSyndicateTargets_MissingFileIsEmpty(t *testing.T) {
	targets, err := LoadSyndicateTargets(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, targets)

	targets, err = LoadSyndicateTargets("")
	require.NoError(t, err)
	assert.Nil(t, targets)
}
