// Package config loads the skyforge CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skyforge-dev/skyforge/pkg/storage"
)

// Config is the on-disk CLI configuration.
type Config struct {
	// Endpoint and Token identify the control plane.
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`

	// Bucket overrides the account's default staging bucket.
	Bucket string `yaml:"bucket"`

	Storage storage.Config `yaml:"storage"`

	Defaults struct {
		Role              string `yaml:"role"`
		InstanceType      string `yaml:"instance_type"`
		InstanceCount     int    `yaml:"instance_count"`
		VolumeSizeGB      int    `yaml:"volume_size_gb"`
		MaxRuntimeSeconds int    `yaml:"max_runtime_seconds"`
	} `yaml:"defaults"`

	// HistoryPath is the SQLite file recording submitted jobs.
	HistoryPath string `yaml:"history_path"`
}

// Dir resolves the configuration directory, honoring XDG_CONFIG_HOME.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "skyforge")
}

// Load reads YAML configuration from path, defaulting to
// $XDG_CONFIG_HOME/skyforge/config.yaml. Secrets from secrets.env and the
// environment override file values: SKYFORGE_TOKEN, SKYFORGE_ENDPOINT,
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	secrets, _ := LoadSecretsEnv("")
	for _, key := range []string{"SKYFORGE_TOKEN", "SKYFORGE_ENDPOINT", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"} {
		if v := os.Getenv(key); v != "" {
			secrets[key] = v
		}
	}
	if v := secrets["SKYFORGE_TOKEN"]; v != "" {
		cfg.Token = v
	}
	if v := secrets["SKYFORGE_ENDPOINT"]; v != "" {
		cfg.Endpoint = v
	}
	if v := secrets["AWS_ACCESS_KEY_ID"]; v != "" {
		cfg.Storage.S3.AccessKey = v
	}
	if v := secrets["AWS_SECRET_ACCESS_KEY"]; v != "" {
		cfg.Storage.S3.SecretKey = v
	}

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(Dir(), "history.db")
	}
	return cfg, nil
}

// WriteDefault creates a starter config file at path unless one exists.
func WriteDefault(path string) (string, error) {
	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	var cfg Config
	cfg.Endpoint = "https://api.skyforge.dev"
	cfg.Defaults.InstanceType = "fg.standard.xlarge"
	cfg.Defaults.InstanceCount = 1
	cfg.Defaults.VolumeSizeGB = 30
	cfg.Defaults.MaxRuntimeSeconds = 86400
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
