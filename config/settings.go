package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadFileConfig decodes the TOML settings at path on top of the defaults.
// A missing file is created from the commented template.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	if !FileExists(path) {
		if err := CreateDefaultConfig(path); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

func SaveFileConfig(path string, cfg *FileConfig) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

func CreateDefaultConfig(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(path) {
		return nil
	}

	if err := os.WriteFile(path, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
