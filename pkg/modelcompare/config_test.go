package modelcompare

import "testing"

func TestLoadRuntimeConfig_Defaults(t *testing.T) {
	cfg := LoadRuntimeConfig(map[string]any{})
	if !cfg.Enabled || !cfg.IncludeDefaultModel || !cfg.ContextBridge {
		t.Fatalf("expected bool defaults true, got %+v", cfg)
	}
	if cfg.TimeoutSec != DefaultTimeoutSec {
		t.Fatalf("expected default timeout %d, got %d", DefaultTimeoutSec, cfg.TimeoutSec)
	}
	if cfg.MaxParallel != DefaultMaxParallel {
		t.Fatalf("expected default max_parallel %d, got %d", DefaultMaxParallel, cfg.MaxParallel)
	}
	if cfg.Budget != DefaultBudget() {
		t.Fatalf("expected default budget, got %+v", cfg.Budget)
	}
}

func TestLoadRuntimeConfig_NonPositiveFallsBackToDefault(t *testing.T) {
	cfg := LoadRuntimeConfig(map[string]any{
		"timeout_sec":  -5,
		"max_parallel": "not a number",
	})
	if cfg.TimeoutSec != DefaultTimeoutSec {
		t.Fatalf("expected fallback timeout, got %d", cfg.TimeoutSec)
	}
	if cfg.MaxParallel != DefaultMaxParallel {
		t.Fatalf("expected fallback max_parallel, got %d", cfg.MaxParallel)
	}
}

func TestLoadRuntimeConfig_HonorsExplicitValues(t *testing.T) {
	cfg := LoadRuntimeConfig(map[string]any{
		"enabled":      false,
		"timeout_sec":  60,
		"max_parallel": 5,
		"budget": map[string]any{
			"max_files": 2,
		},
	})
	if cfg.Enabled {
		t.Fatalf("expected enabled=false")
	}
	if cfg.TimeoutSec != 60 || cfg.MaxParallel != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Budget.MaxFiles != 2 {
		t.Fatalf("expected max_files=2, got %d", cfg.Budget.MaxFiles)
	}
	if cfg.Budget.MaxSnippets != DefaultMaxSnippets {
		t.Fatalf("expected default max_snippets, got %d", cfg.Budget.MaxSnippets)
	}
}
