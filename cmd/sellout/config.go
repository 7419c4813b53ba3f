package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// Config holds all configuration options
type Config struct {
	// Server config
	Addr         string `long:"addr" env:"ADDR" default:":8080" description:"Listen address"`
	PasswordHash string `long:"password-hash" env:"PASSWORD_HASH" required:"true" description:"argon2id hash of the admin password (PHC format)"`
	PathPrefix   string `long:"path-prefix" env:"PATH_PREFIX" default:"content/" description:"Directory inside the content repo that holds posts"`

	// Storage config
	CredentialMode string `long:"credential-mode" env:"CREDENTIAL_MODE" default:"redis" choice:"redis" choice:"memory" description:"Token/code storage backend"`
	SessionMode    string `long:"session-mode" env:"SESSION_MODE" default:"memory" choice:"memory" choice:"redis" description:"Session storage backend"`

	// Content repository
	Git struct {
		RepoPath    string `long:"git-repo" env:"GIT_REPO" default:"./site" description:"Path to the content git repository"`
		AuthorName  string `long:"git-author-name" env:"GIT_AUTHOR_NAME" default:"sellout" description:"Commit author name"`
		AuthorEmail string `long:"git-author-email" env:"GIT_AUTHOR_EMAIL" default:"sellout@localhost" description:"Commit author email"`
	} `group:"Content Repository Options"`

	// Media storage
	S3 struct {
		Endpoint  string `long:"s3-endpoint" env:"S3_ENDPOINT" default:"localhost:9000" description:"S3 endpoint (host:port)"`
		Bucket    string `long:"s3-bucket" env:"MEDIA_BUCKET" default:"sellout-media" description:"Media bucket name"`
		AccessKey string `long:"s3-access-key" env:"S3_ACCESS_KEY" default:"minioadmin" description:"S3 access key"`
		SecretKey string `long:"s3-secret-key" env:"S3_SECRET_KEY" default:"minioadmin" description:"S3 secret key"`
		UseSSL    bool   `long:"s3-use-ssl" env:"S3_USE_SSL" description:"Use SSL for S3 connections"`
		MediaURL  string `long:"media-url" env:"MEDIA_URL" default:"http://localhost:9000/sellout-media" description:"Public base URL for uploaded media"`
	} `group:"Media Storage Options"`

	// Redis config
	Redis struct {
		Addr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
		Password string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
		DB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	} `group:"Redis Options"`

	SyndicateFile string `long:"syndicate-file" env:"SYNDICATE_FILE" description:"YAML file listing syndication targets"`
}

// LoadConfig parses configuration from environment variables and command line flags
func LoadConfig() (*Config, error) {
	var config Config

	parser := flags.NewParser(&config, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}
