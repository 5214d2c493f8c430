package config

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName is the file looked up inside a config directory.
const ConfigFileName = "config.yaml"

// ErrNoConfig is returned by DiscoverConfigPath when no location holds a config.
var ErrNoConfig = errors.New("no config found (checked: $SLASHGW_CONFIG_DIR, ~/.config/slashgw, /etc/slashgw, ./config.yaml)")

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $SLASHGW_CONFIG_DIR, ~/.config/slashgw, /etc/slashgw, ./config.yaml.
func DiscoverConfigPath() (string, error) {
	var candidates []string
	if dir := os.Getenv("SLASHGW_CONFIG_DIR"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ConfigFileName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "slashgw", ConfigFileName))
	}
	candidates = append(candidates,
		filepath.Join("/etc/slashgw", ConfigFileName),
		ConfigFileName,
	)

	for _, path := range candidates {
		if fileExists(path) {
			return filepath.Abs(path)
		}
	}
	return "", ErrNoConfig
}

// resolveConfigPath accepts either a file or a directory holding config.yaml.
func resolveConfigPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if dirExists(absPath) {
		absPath = filepath.Join(absPath, ConfigFileName)
	}
	if !fileExists(absPath) {
		return "", os.ErrNotExist
	}
	return absPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
