package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from .env files into the process
// environment. The working directory is checked first, then the config
// directory. Variables already set in the environment are never overridden.
// Returns the files that were loaded.
func LoadDotEnv() ([]string, error) {
	candidates := []string{".env"}
	if dir := getConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}

	var loaded []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		checkPermissions(path)
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
