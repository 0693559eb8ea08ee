package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the default config file looked up by the CLI.
const ConfigFileName = "hotdogbench.yml"

// FindConfigPath resolves an explicit config path or falls back to the
// default file in the working directory.
func FindConfigPath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, ConfigFileName), nil
}

// ResolveDir resolves a config-relative directory against a base directory.
func ResolveDir(baseDir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}
