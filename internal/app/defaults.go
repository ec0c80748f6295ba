package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - LTH_CONFIG_PATH: config file location (default: ~/.config/lth.toml)
//   - LTH_HOME: base directory for lth data (default: ~/.local/share/lth)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking LTH_CONFIG_PATH env var first,
// then falling back to the default ~/.config/lth.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("LTH_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "lth.toml"), nil
}

// getBaseDir returns the base directory for lth data, checking LTH_HOME env var first,
// then falling back to the XDG default ~/.local/share/lth.
func getBaseDir() (string, error) {
	if path := os.Getenv("LTH_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "lth"), nil
}
