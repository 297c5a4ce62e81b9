// Package modelcompare implements the context-pack pipeline and fan-out
// executor that power the `~compare` runtime: given a question and a local
// workspace, it prepares a sanitized, budget-bounded context package and
// dispatches the same payload to several candidate model endpoints in
// parallel, returning uniformly shaped results plus diagnostic metadata.
package modelcompare

// Budget bounds how much of the extracted context survives into the final
// pack. All fields are immutable once constructed; zero/negative values are
// replaced with the package defaults by DefaultBudget / NormalizeBudget.
type Budget struct {
	MaxFiles           int
	MaxSnippets        int
	MaxLinesPerSnippet int
	MaxCharsTotal      int
}

// Default budget bounds, matching the reference runtime.
const (
	DefaultMaxFiles           = 6
	DefaultMaxSnippets        = 10
	DefaultMaxLinesPerSnippet = 160
	DefaultMaxCharsTotal      = 12000
)

// DefaultBudget returns the reference default budget.
func DefaultBudget() Budget {
	return Budget{
		MaxFiles:           DefaultMaxFiles,
		MaxSnippets:        DefaultMaxSnippets,
		MaxLinesPerSnippet: DefaultMaxLinesPerSnippet,
		MaxCharsTotal:      DefaultMaxCharsTotal,
	}
}

// NormalizeBudget replaces any non-positive field with its default.
func NormalizeBudget(b Budget) Budget {
	out := b
	if out.MaxFiles <= 0 {
		out.MaxFiles = DefaultMaxFiles
	}
	if out.MaxSnippets <= 0 {
		out.MaxSnippets = DefaultMaxSnippets
	}
	if out.MaxLinesPerSnippet <= 0 {
		out.MaxLinesPerSnippet = DefaultMaxLinesPerSnippet
	}
	if out.MaxCharsTotal <= 0 {
		out.MaxCharsTotal = DefaultMaxCharsTotal
	}
	return out
}

// Default runtime knobs, matching the reference runtime.
const (
	DefaultTimeoutSec  = 25
	DefaultMaxParallel = 3
)

// RuntimeConfig is the resolved, immutable configuration for a single
// invocation. It is built from the raw configuration map delivered to the
// core (see LoadRuntimeConfig) — the core never reads files or environment
// variables itself.
type RuntimeConfig struct {
	Enabled              bool
	TimeoutSec           int
	MaxParallel          int
	IncludeDefaultModel  bool
	ContextBridge        bool
	Budget               Budget
}

// LoadRuntimeConfig parses a raw configuration map (as delivered by an
// external configuration source) into a RuntimeConfig. Any non-positive or
// non-numeric value for a positive-int field falls back to its default, per
// the data model's RuntimeConfig invariant.
func LoadRuntimeConfig(raw map[string]any) RuntimeConfig {
	cfg := RuntimeConfig{
		Enabled:             boolOr(raw["enabled"], true),
		TimeoutSec:          positiveIntOr(raw["timeout_sec"], DefaultTimeoutSec),
		MaxParallel:         positiveIntOr(raw["max_parallel"], DefaultMaxParallel),
		IncludeDefaultModel: boolOr(raw["include_default_model"], true),
		ContextBridge:       boolOr(raw["context_bridge"], true),
		Budget:              loadBudget(raw["budget"]),
	}
	return cfg
}

func loadBudget(v any) Budget {
	m, ok := v.(map[string]any)
	if !ok {
		return DefaultBudget()
	}
	return NormalizeBudget(Budget{
		MaxFiles:           positiveIntOr(m["max_files"], DefaultMaxFiles),
		MaxSnippets:        positiveIntOr(m["max_snippets"], DefaultMaxSnippets),
		MaxLinesPerSnippet: positiveIntOr(m["max_lines_per_snippet"], DefaultMaxLinesPerSnippet),
		MaxCharsTotal:      positiveIntOr(m["max_chars_total"], DefaultMaxCharsTotal),
	})
}

func boolOr(v any, def bool) bool {
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// positiveIntOr coerces v to a positive int, falling back to def for
// non-numeric or non-positive values.
func positiveIntOr(v any, def int) int {
	n, ok := asInt(v)
	if !ok || n <= 0 {
		return def
	}
	return n
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
