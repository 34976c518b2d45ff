package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FrameworkConfig describes one legal framework: its short code, display
// name, level (1 = foundational principles, 2+ = jurisdiction rule sets),
// the directory holding its source documents relative to the corpus root,
// and the domain tags shared by every record it contains.
//
// Framework metadata is configuration supplied alongside the source tree,
// never derived from it.
type FrameworkConfig struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Level   int      `yaml:"level"`
	Path    string   `yaml:"path"`
	Domains []string `yaml:"domains,omitempty"`
}

// Config is the root of frameworks.yaml.
type Config struct {
	Frameworks []FrameworkConfig `yaml:"frameworks"`
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if len(c.Frameworks) == 0 {
		return fmt.Errorf("no frameworks configured")
	}
	seen := make(map[string]bool, len(c.Frameworks))
	for _, fw := range c.Frameworks {
		if fw.Code == "" {
			return fmt.Errorf("framework with empty code (name=%q)", fw.Name)
		}
		if seen[fw.Code] {
			return fmt.Errorf("framework code %q declared twice", fw.Code)
		}
		seen[fw.Code] = true
		if fw.Level < 1 {
			return fmt.Errorf("framework %q: level must be >= 1, got %d", fw.Code, fw.Level)
		}
		if fw.Path == "" {
			return fmt.Errorf("framework %q: path is required", fw.Code)
		}
	}
	return nil
}

// LoadConfig reads and validates a frameworks.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultConfig returns the standard framework layout: Level 1 principles
// plus the eight South African jurisdiction branches.
func DefaultConfig() *Config {
	return &Config{
		Frameworks: []FrameworkConfig{
			{Code: "lv1", Name: "Level 1 Principles", Level: 1, Path: "lv1"},
			{Code: "civ", Name: "Civil Law (ZA)", Level: 2, Path: "civ/za", Domains: []string{"contract", "delict", "property", "family"}},
			{Code: "cri", Name: "Criminal Law (ZA)", Level: 2, Path: "cri/za", Domains: []string{"criminal"}},
			{Code: "con", Name: "Constitutional Law (ZA)", Level: 2, Path: "con/za", Domains: []string{"constitutional"}},
			{Code: "adm", Name: "Administrative Law (ZA)", Level: 2, Path: "adm/za", Domains: []string{"administrative"}},
			{Code: "lab", Name: "Labour Law (ZA)", Level: 2, Path: "lab/za", Domains: []string{"labour", "employment"}},
			{Code: "env", Name: "Environmental Law (ZA)", Level: 2, Path: "env/za", Domains: []string{"environmental"}},
			{Code: "cst", Name: "Construction Law (ZA)", Level: 2, Path: "cst/za", Domains: []string{"construction"}},
			{Code: "int", Name: "International Law (ZA)", Level: 2, Path: "int/za", Domains: []string{"international"}},
		},
	}
}
