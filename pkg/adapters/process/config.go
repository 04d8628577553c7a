package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ApparatusConfig describes an external command exposed as a Processor or Switcher.
type ApparatusConfig struct {
	Name        string               `yaml:"name" json:"name"`
	Kind        domain.ApparatusKind `yaml:"kind" json:"kind"`
	Command     string               `yaml:"command" json:"command"`
	Args        []string             `yaml:"args" json:"args"`
	Environment map[string]string    `yaml:"env" json:"env"`
	Timeout     string               `yaml:"timeout" json:"timeout"`
	Description string               `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of apparatus.yaml
type ConfigFile struct {
	Apparatuses []ApparatusConfig `yaml:"apparatuses" json:"apparatuses"`
}

// timeout parses the optional Timeout field.
func (c ApparatusConfig) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("apparatus %s: invalid timeout %q: %w", c.Name, c.Timeout, err)
	}
	return d, nil
}

func (c ApparatusConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("apparatus entry missing name")
	}
	if c.Command == "" {
		return fmt.Errorf("apparatus %s: missing command", c.Name)
	}
	switch c.Kind {
	case domain.ApparatusProcessor, domain.ApparatusSwitcher:
	default:
		return fmt.Errorf("apparatus %s: kind must be %q or %q, got %q", c.Name, domain.ApparatusProcessor, domain.ApparatusSwitcher, c.Kind)
	}
	_, err := c.timeout()
	return err
}

// LoadConfig reads a configuration file (YAML or JSON) and returns its entries.
// A missing file yields no entries.
func LoadConfig(path string) ([]ApparatusConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read apparatus config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	for _, c := range cfg.Apparatuses {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}
	return cfg.Apparatuses, nil
}
