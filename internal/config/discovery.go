package config

import (
	"errors"
	"os"
	"path/filepath"
)

const configFileName = "manimcp.yaml"

// ErrNoConfig is returned by Discover when no config file exists in any of
// the standard locations.
var ErrNoConfig = errors.New("no config found (checked: $MANIMCP_CONFIG, ~/.config/manimcp/manimcp.yaml, ./manimcp.yaml)")

// Discover finds the config file by checking standard locations.
// Priority order: $MANIMCP_CONFIG, ~/.config/manimcp/manimcp.yaml, ./manimcp.yaml.
func Discover() (string, error) {
	if path := os.Getenv(ConfigEnv); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "manimcp", configFileName)
		if fileExists(userConfig) {
			return userConfig, nil
		}
	}

	local := filepath.Join(".", configFileName)
	if fileExists(local) {
		return local, nil
	}

	return "", ErrNoConfig
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
