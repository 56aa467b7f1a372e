// Package config loads the calculator configuration from a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables holding the login credential.
const (
	EnvUsername     = "GWP_AUTH_USERNAME"
	EnvPasswordHash = "GWP_AUTH_PASSWORD_HASH"
	EnvJWTSecret    = "GWP_AUTH_JWT_SECRET"
)

type Config struct {
	Listen      string      `yaml:"listen"`
	Log         Log         `yaml:"log"`
	Auth        Auth        `yaml:"auth"`
	Factors     Factors     `yaml:"factors"`
	Aggregation Aggregation `yaml:"aggregation"`
	Store       Store       `yaml:"store"`
	Archive     Archive     `yaml:"archive"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Auth struct {
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	// LoginRate is the number of login attempts allowed per minute and client
	LoginRate int `yaml:"login_rate"`
}

type Factors struct {
	// File is an optional YAML factors file merged over the embedded defaults
	File string `yaml:"file"`
}

type Aggregation struct {
	SumRounded     bool    `yaml:"sum_rounded"`
	ShareTolerance float64 `yaml:"share_tolerance"`
}

type Store struct {
	// Path of the SQLite history database, history is disabled when empty
	Path string `yaml:"path"`
}

type Archive struct {
	// URL is s3://bucket/prefix, gs://bucket/prefix or file:///dir
	URL        string `yaml:"url"`
	AWSRoleArn string `yaml:"aws_role_arn"`
	AWSRegion  string `yaml:"aws_region"`
	// Endpoint overrides the S3 endpoint for S3 compatible stores
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: "0.0.0.0:2922",
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Auth: Auth{
			TokenTTL:  12 * time.Hour,
			LoginRate: 5,
		},
		Aggregation: Aggregation{
			ShareTolerance: 1e-6,
		},
		Archive: Archive{
			AWSRegion: "us-east-1",
		},
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides. An empty path only applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, found := lookup(EnvUsername); found {
		cfg.Auth.Username = v
	}
	if v, found := lookup(EnvPasswordHash); found {
		cfg.Auth.PasswordHash = v
	}
	if v, found := lookup(EnvJWTSecret); found {
		cfg.Auth.JWTSecret = v
	}
}

// Validate checks the configuration values.
func (cfg Config) Validate() error {
	var errs []error
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", cfg.Log.Format))
	}
	if cfg.Aggregation.ShareTolerance < 0 {
		errs = append(errs, errors.New("aggregation share tolerance must not be negative"))
	}
	if cfg.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	if cfg.Auth.LoginRate <= 0 {
		errs = append(errs, errors.New("auth login rate must be positive"))
	}
	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth jwt secret must be at least 32 bytes"))
	}
	return errors.Join(errs...)
}
