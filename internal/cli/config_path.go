package cli

import (
	"fmt"
	"path/filepath"

	"hotdogbench/internal/config"
	"hotdogbench/internal/spec"
)

// loadConfig resolves the config path, loads the file, and rebases the data
// and results directories against the config file's directory.
func loadConfig(explicit string) (spec.Config, error) {
	path, err := config.FindConfigPath(explicit)
	if err != nil {
		return spec.Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return spec.Config{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	baseDir := filepath.Dir(abs)
	cfg.DataDir = config.ResolveDir(baseDir, cfg.DataDir)
	cfg.ResultsDir = config.ResolveDir(baseDir, cfg.ResultsDir)
	return cfg, nil
}
