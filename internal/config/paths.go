// Package config provides configuration management for breach-notifier.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/breachnotifier/breach-notifier/internal/constants"
)

// ConfigDir is the directory name under the user config directory.
const ConfigDir = "breach-notifier"

// ConfigFileName is the INI file inside ConfigDir.
const ConfigFileName = "config.ini"

// getConfigDir returns the platform-appropriate config directory.
// - Windows: %APPDATA%\BreachNotifier
// - Unix: $XDG_CONFIG_HOME/breach-notifier, falling back to ~/.config/breach-notifier
func getConfigDir() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "BreachNotifier")
		}
		// Fallback to USERPROFILE if APPDATA not set
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", "BreachNotifier")
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, ConfigDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", ConfigDir)
	}
	return ""
}

// GetDefaultConfigPath returns the config file path. BDN_CONFIG overrides the
// platform default.
func GetDefaultConfigPath() string {
	if p := os.Getenv(constants.EnvConfigPath); p != "" {
		return p
	}
	configDir := getConfigDir()
	if configDir == "" {
		return ConfigFileName
	}
	return filepath.Join(configDir, ConfigFileName)
}

// checkPermissions warns on stderr when a file holding API keys is readable
// by group or others. Windows ACLs are not inspected.
func checkPermissions(path string) {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s has insecure permissions %04o. Consider using 'chmod 600 %s'\n", path, mode, path)
	}
}
