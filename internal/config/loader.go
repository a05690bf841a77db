package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TokenEnv overrides the token from any config file.
const TokenEnv = "PRIORITYSYNC_TOKEN"

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): token env var, project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Token = token
	}

	return cfg, nil
}

// DefaultPaths returns the conventional config locations.
// Global: ~/.prioritysync/config.json
// Project: .prioritysync/config.json (relative to cwd)
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".prioritysync", "config.json"),
		filepath.Join(".prioritysync", "config.json"), nil
}

// LoadDefault loads configuration from the conventional paths.
func LoadDefault() (*Config, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// mergeConfigFile decodes a JSON file on top of base. Keys present in the file
// replace the current values, absent keys keep them; lists are replaced whole.
// Missing files are silently skipped.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, base); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}
