// Package config loads the runtime configuration the modelcompare core
// expects as a plain map, external to the core itself. It layers a YAML
// file with environment overrides into a typed struct assembled from disk
// plus env, then hands the core the raw map it actually consumes.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// CandidateConfig mirrors one entry of the `candidates` sequence as it is
// read from YAML.
type CandidateConfig struct {
	ID        string `yaml:"id"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// BudgetConfig mirrors the optional `budget` mapping.
type BudgetConfig struct {
	MaxFiles           int `yaml:"max_files"`
	MaxSnippets        int `yaml:"max_snippets"`
	MaxLinesPerSnippet int `yaml:"max_lines_per_snippet"`
	MaxCharsTotal      int `yaml:"max_chars_total"`
}

// MultiModelConfig is the on-disk shape of the `multi_model` section. Every
// field is optional; the core's RuntimeConfig fills in its own defaults.
type MultiModelConfig struct {
	Enabled             *bool             `yaml:"enabled"`
	TimeoutSec          int               `yaml:"timeout_sec" env:"MODELCOMPARE_TIMEOUT_SEC"`
	MaxParallel         int               `yaml:"max_parallel" env:"MODELCOMPARE_MAX_PARALLEL"`
	IncludeDefaultModel *bool             `yaml:"include_default_model"`
	ContextBridge       *bool             `yaml:"context_bridge"`
	Budget              BudgetConfig      `yaml:"budget"`
	Candidates          []CandidateConfig `yaml:"candidates"`
}

// FileConfig is the top-level YAML document.
type FileConfig struct {
	MultiModel MultiModelConfig `yaml:"multi_model"`
	Workspace  string           `yaml:"workspace" env:"MODELCOMPARE_WORKSPACE"`
}

// Load reads path as YAML, applies environment variable overrides via
// caarlos0/env, and returns the parsed document.
func Load(path string) (FileConfig, error) {
	var cfg FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: apply env overrides: %w", err)
	}
	return cfg, nil
}

// RawMultiModel renders the multi_model section as the plain map the
// modelcompare core consumes — the core never parses YAML or reads the
// environment itself.
func (c FileConfig) RawMultiModel() map[string]any {
	m := c.MultiModel
	raw := map[string]any{
		"timeout_sec":  m.TimeoutSec,
		"max_parallel": m.MaxParallel,
		"budget": map[string]any{
			"max_files":             m.Budget.MaxFiles,
			"max_snippets":          m.Budget.MaxSnippets,
			"max_lines_per_snippet": m.Budget.MaxLinesPerSnippet,
			"max_chars_total":       m.Budget.MaxCharsTotal,
		},
	}
	if m.Enabled != nil {
		raw["enabled"] = *m.Enabled
	}
	if m.IncludeDefaultModel != nil {
		raw["include_default_model"] = *m.IncludeDefaultModel
	}
	if m.ContextBridge != nil {
		raw["context_bridge"] = *m.ContextBridge
	}
	return raw
}

// Environ snapshots the process environment as the string-to-string mapping
// the core's candidate resolver expects.
func Environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}
