package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindEnv locates an env file. Absolute paths are checked as given; relative
// names are looked up in the working directory and then in each parent, so
// binaries and tests started below the repo root find the same .env.
func FindEnv(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("env file %q: %w", name, os.ErrNotExist)
		}
		dir = parent
	}
}
