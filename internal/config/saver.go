package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/khanglvm/food-search/internal/logger"
)

// Save validates cfg and writes it to path as YAML. An existing file is
// copied to path.bak first and replaced atomically.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return rejected(path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return writeDenied(dir, "Cannot create the food-search config directory")
	}

	if err := backupConfig(path); err != nil {
		// A failed backup only loses the undo copy.
		logger.Default("config").Warn("failed to back up config", "path", path, "err", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := atomicWrite(path, data); err != nil {
		if os.IsPermission(err) {
			return writeDenied(path, "Cannot replace the food-search config")
		}
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

// atomicWrite writes a sibling temp file and renames it over path, so a
// reader sees either the old config or the new one.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeDenied(path, details string) *PermissionError {
	fix := fmt.Sprintf("Run: chmod u+w %s, or pass 'food-search config init --path' a writable location", path)
	if runtime.GOOS == "windows" {
		fix = fmt.Sprintf("Grant yourself Write on %s under Properties → Security", path)
	}
	return &PermissionError{Path: path, Op: "write", Fix: fix, Details: details}
}
