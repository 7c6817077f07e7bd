package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v2"
)

// Secrets is the secret store read alongside the configuration. Only the
// DATA_URL key is consumed.
type Secrets struct {
	DataURL string `yaml:"DATA_URL"`
}

// LoadSecrets reads a YAML secrets file. A missing file or empty path yields
// empty secrets.
func LoadSecrets(path string) (Secrets, error) {
	var s Secrets
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	return s, nil
}
