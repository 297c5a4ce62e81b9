package modelcompare

import "testing"

func TestResolveCandidates_NoneEnabled(t *testing.T) {
	_, reasons := ResolveCandidates(nil, RuntimeConfig{IncludeDefaultModel: false}, nil, nil)
	if len(reasons) != 1 || reasons[0] != "NO_ENABLED_CANDIDATES: candidates[*].enabled=true count=0" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestResolveCandidates_UnsupportedProvider(t *testing.T) {
	raw := []RawCandidate{{ID: "x", Provider: "anthropic", Enabled: true}}
	candidates, reasons := ResolveCandidates(raw, RuntimeConfig{IncludeDefaultModel: false}, nil, nil)
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}
	if len(reasons) != 1 || reasons[0] != "UNSUPPORTED_PROVIDER: id=x, provider=anthropic" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestResolveCandidates_MissingAPIKey(t *testing.T) {
	raw := []RawCandidate{{ID: "x", Provider: ProviderOpenAICompatible, Enabled: true, APIKeyEnv: "X_KEY"}}
	_, reasons := ResolveCandidates(raw, RuntimeConfig{IncludeDefaultModel: false}, nil, map[string]string{"X_KEY": "   "})
	if len(reasons) != 1 || reasons[0] != "MISSING_API_KEY: candidate_id=x" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestResolveCandidates_AdmitsExternalAndAppendsDefault(t *testing.T) {
	raw := []RawCandidate{
		{ID: "ext1", Provider: ProviderOpenAICompatible, Enabled: true, APIKeyEnv: "EXT1_KEY", Model: "m1"},
		{ID: "ext2", Provider: ProviderOpenAICompatible, Enabled: false, APIKeyEnv: "EXT2_KEY", Model: "m2"},
	}
	def := &Candidate{ID: "default", Provider: "anthropic", Model: "claude"}
	candidates, reasons := ResolveCandidates(raw, RuntimeConfig{IncludeDefaultModel: true}, def, map[string]string{"EXT1_KEY": "secret"})
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates (external + default), got %+v", candidates)
	}
	if candidates[0].ID != "ext1" || candidates[0].IsDefault {
		t.Fatalf("expected ext1 first and non-default: %+v", candidates[0])
	}
	if !candidates[1].IsDefault || candidates[1].ID != "default" {
		t.Fatalf("expected default candidate last: %+v", candidates[1])
	}
	if !candidates[0].IsExternal() {
		t.Fatalf("expected ext1 to be external")
	}
	if candidates[1].IsExternal() {
		t.Fatalf("default candidate must never be external")
	}
}

func TestResolveCandidates_DefaultUnavailable(t *testing.T) {
	_, reasons := ResolveCandidates(nil, RuntimeConfig{IncludeDefaultModel: true}, nil, nil)
	found := false
	for _, r := range reasons {
		if r == "DEFAULT_MODEL_UNAVAILABLE: include_default_model=true" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DEFAULT_MODEL_UNAVAILABLE reason, got %v", reasons)
	}
}
