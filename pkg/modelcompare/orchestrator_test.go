package modelcompare

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func echoCaller(answer string) ModelCaller {
	return func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		return answer, nil
	}
}

func externalRaw(id, keyEnv string) RawCandidate {
	return RawCandidate{ID: id, Provider: ProviderOpenAICompatible, Enabled: true, APIKeyEnv: keyEnv, Model: "m"}
}

func TestCompare_DisabledFeature(t *testing.T) {
	req := CompareRequest{
		RawConfig:     map[string]any{"enabled": false},
		RawCandidates: []RawCandidate{externalRaw("A", "A_KEY"), externalRaw("B", "B_KEY")},
		Env:           map[string]string{"A_KEY": "a-secret", "B_KEY": "b-secret"},
		Question:      "q",
		Workspace:     t.TempDir(),
		Caller:        echoCaller("ok"),
	}
	out := Compare(context.Background(), req)
	if out.Mode != ModeSingle {
		t.Fatalf("expected single mode, got %s", out.Mode)
	}
	if !containsReason(out.FallbackReasons, "FEATURE_DISABLED: multi_model.enabled=false") {
		t.Fatalf("expected FEATURE_DISABLED reason, got %v", out.FallbackReasons)
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(out.Results))
	}
}

func TestCompare_BypassBridge(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "auth.go"), []byte("package auth\nfunc Auth() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	req := CompareRequest{
		RawConfig:     map[string]any{"context_bridge": false, "include_default_model": false},
		RawCandidates: []RawCandidate{externalRaw("A", "A_KEY"), externalRaw("B", "B_KEY")},
		Env:           map[string]string{"A_KEY": "a-secret", "B_KEY": "b-secret"},
		Question:      "how does auth work?",
		Workspace:     ws,
		Caller:        echoCaller("ok"),
	}
	out := Compare(context.Background(), req)
	if out.Mode != ModeFanout {
		t.Fatalf("expected fanout mode, got %s", out.Mode)
	}
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if out.ContextPack != nil {
		t.Fatalf("expected no context_pack in output")
	}
	if out.Metadata["bridge"] != "off" {
		t.Fatalf("expected bridge=off, got %v", out.Metadata["bridge"])
	}
	if !containsReason(out.FallbackReasons, "CONTEXT_BRIDGE_BYPASSED: context_bridge=false") {
		t.Fatalf("expected CONTEXT_BRIDGE_BYPASSED reason, got %v", out.FallbackReasons)
	}
}

func TestCompare_EmptyPackFallsBackToSingle(t *testing.T) {
	req := CompareRequest{
		RawConfig:     map[string]any{"include_default_model": false},
		RawCandidates: []RawCandidate{externalRaw("A", "A_KEY"), externalRaw("B", "B_KEY")},
		Env:           map[string]string{"A_KEY": "a-secret", "B_KEY": "b-secret"},
		Question:      "hello",
		Workspace:     t.TempDir(),
		Caller:        echoCaller("ok"),
	}
	out := Compare(context.Background(), req)
	if out.Mode != ModeSingle {
		t.Fatalf("expected single mode, got %s", out.Mode)
	}
	if !containsReason(out.FallbackReasons, "CONTEXT_PACK_EMPTY: facts=0 snippets=0") {
		t.Fatalf("expected CONTEXT_PACK_EMPTY reason, got %v", out.FallbackReasons)
	}
	if len(out.Results) != 1 || out.Results[0].CandidateID != "A" {
		t.Fatalf("expected single call to first external candidate, got %+v", out.Results)
	}
}

func TestCompare_NoCandidatesReturnsEmptyResults(t *testing.T) {
	req := CompareRequest{
		RawConfig: map[string]any{"include_default_model": false},
		Workspace: t.TempDir(),
		Question:  "q",
		Caller:    echoCaller("ok"),
	}
	out := Compare(context.Background(), req)
	if len(out.Results) != 0 {
		t.Fatalf("expected no results, got %+v", out.Results)
	}
	if out.Mode != ModeSingle {
		t.Fatalf("expected single mode, got %s", out.Mode)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
