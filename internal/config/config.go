// Package config loads and validates the project configuration at the
// root of a lit repository (lit.toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// validMappingModes are the only values project.mapping may take.
var validMappingModes = map[string]bool{
	"direct":   true,
	"manifest": true,
	"modular":  true,
	"inferred": true,
}

var validProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
}

// StaticFile is a file written verbatim to the generated-code root before
// the pipeline runs, with no LLM call involved.
type StaticFile struct {
	Path    string `toml:"path"`
	Content string `toml:"content"`
}

// Config is the parsed, validated contents of lit.toml.
type Config struct {
	Project   ProjectConfig    `toml:"project"`
	Language  LanguageConfig   `toml:"language"`
	Framework *FrameworkConfig `toml:"framework"`
	Model     ModelConfig      `toml:"model"`
	Static    []StaticFile     `toml:"static"`
}

type ProjectConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Mapping string `toml:"mapping"`
}

type LanguageConfig struct {
	Default string `toml:"default"`
	Version string `toml:"version"`
}

type FrameworkConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type ModelConfig struct {
	Provider    string         `toml:"provider"`
	Model       string         `toml:"model"`
	Temperature float64        `toml:"temperature"`
	Seed        *uint64        `toml:"seed"`
	API         *APIConfig     `toml:"api"`
	Pricing     *PricingConfig `toml:"pricing"`
}

type APIConfig struct {
	KeyEnv string `toml:"key_env"`
}

// PricingConfig overrides the built-in per-model dollar-per-million-token
// pricing table used for cost estimation (internal/record).
type PricingConfig struct {
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

// ErrConfigMissing is returned when no lit.toml is found.
type ErrConfigMissing struct {
	Dir string
}

func (e *ErrConfigMissing) Error() string {
	return fmt.Sprintf("not a lit repository: lit.toml not found in %s or any parent directory", e.Dir)
}

// FromBytes parses and validates configuration from raw TOML content.
func FromBytes(content []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse lit.toml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile loads and validates configuration from a lit.toml path.
func FromFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return FromBytes(content)
}

// FindAndLoad walks up from startDir looking for lit.toml and returns the
// parsed config together with the directory it was found in (the repo root).
func FindAndLoad(startDir string) (*Config, string, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	for {
		configPath := filepath.Join(current, "lit.toml")
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := FromFile(configPath)
			if err != nil {
				return nil, "", err
			}
			return cfg, current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, "", &ErrConfigMissing{Dir: startDir}
		}
		current = parent
	}
}

func (c *Config) validate() error {
	required := []struct{ field, value string }{
		{"project.name", c.Project.Name},
		{"language.default", c.Language.Default},
		{"model.model", c.Model.Model},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required field %s in lit.toml", r.field)
		}
	}
	if !validMappingModes[c.Project.Mapping] {
		return fmt.Errorf("invalid mapping mode %q in lit.toml: must be one of direct, manifest, modular, inferred", c.Project.Mapping)
	}
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 2.0 {
		return fmt.Errorf("invalid temperature %v in lit.toml: must be between 0.0 and 2.0", c.Model.Temperature)
	}
	if !validProviders[c.Model.Provider] {
		return fmt.Errorf("invalid model provider %q in lit.toml: must be one of anthropic, openai", c.Model.Provider)
	}
	return nil
}

// ResolveAPIKey reads the API key from the environment variable named in
// [model.api].key_env (default LIT_API_KEY). The value itself is never
// persisted to config.
func (c *Config) ResolveAPIKey() (string, error) {
	keyEnv := "LIT_API_KEY"
	if c.Model.API != nil && c.Model.API.KeyEnv != "" {
		keyEnv = c.Model.API.KeyEnv
	}
	val := os.Getenv(keyEnv)
	if val == "" {
		return "", fmt.Errorf("API key not found: set the %s environment variable (export %s=your-api-key)", keyEnv, keyEnv)
	}
	return val, nil
}

// FrameworkName returns the configured framework name, or "" if none.
func (c *Config) FrameworkName() string {
	if c.Framework == nil {
		return ""
	}
	return c.Framework.Name
}
