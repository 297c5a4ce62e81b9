package modelcompare

import (
	"context"
	"strconv"
)

// CompareRuntimeOutput is the full result of a single invocation. Metadata
// is always populated; ContextPack is nil unless a pack was built.
type CompareRuntimeOutput struct {
	Mode            string
	Metadata        map[string]any
	Results         []NormalizedResult
	FallbackReasons []string
	ContextPack     *SerializedPack
}

const (
	ModeFanout = "fanout"
	ModeSingle = "single"
)

// CompareRequest bundles everything a single Compare invocation needs. The
// core never reads configuration files or the environment itself — both
// arrive as plain maps from the caller.
type CompareRequest struct {
	RawConfig        map[string]any
	RawCandidates    []RawCandidate
	DefaultCandidate *Candidate
	Env              map[string]string
	Question         string
	Workspace        string
	ExplicitFiles    []string
	ExplicitSnippets []ExplicitSnippetInput
	Caller           ModelCaller
}

// Compare runs the full orchestration: resolve candidates, decide on
// context bridging, build the payload, pick a mode, and dispatch.
func Compare(ctx context.Context, req CompareRequest) CompareRuntimeOutput {
	cfg := LoadRuntimeConfig(req.RawConfig)

	var reasons []string
	if !cfg.Enabled {
		reasons = append(reasons, "FEATURE_DISABLED: multi_model.enabled=false")
	}

	candidates, candidateReasons := ResolveCandidates(req.RawCandidates, cfg, req.DefaultCandidate, req.Env)
	reasons = append(reasons, candidateReasons...)

	callableExternalExists := false
	for _, c := range candidates {
		if c.IsExternal() {
			callableExternalExists = true
			break
		}
	}

	var pack *ContextPack
	emptyPackFallback := false

	switch {
	case cfg.ContextBridge && callableExternalExists:
		built := BuildPack(req.Question, req.Workspace, cfg.Budget, req.ExplicitFiles, req.ExplicitSnippets)
		pack = &built
		if built.IsEmpty() {
			emptyPackFallback = true
			reasons = append(reasons, "CONTEXT_PACK_EMPTY: facts=0 snippets=0")
		}
	case !cfg.ContextBridge && callableExternalExists:
		reasons = append(reasons, "CONTEXT_BRIDGE_BYPASSED: context_bridge=false")
	}

	payload := BuildPayload(req.Question, cfg.ContextBridge, pack)

	metadata := map[string]any{
		"bridge":     bridgeLabel(cfg.ContextBridge),
		"files":      0,
		"snippets":   0,
		"redactions": 0,
		"truncated":  false,
	}
	if pack != nil {
		metadata["files"] = pack.Meta["files"]
		metadata["snippets"] = pack.Meta["snippets"]
		metadata["redactions"] = pack.Meta["redaction_count"]
		metadata["truncated"] = pack.Meta["truncated"]
	}

	serializedPack := SerializePack(pack)

	mode := ModeSingle
	if cfg.Enabled && len(candidates) >= 2 && !emptyPackFallback {
		mode = ModeFanout
	}

	var runCandidates []Candidate
	if mode == ModeFanout {
		runCandidates = candidates
	} else {
		if len(candidates) < 2 {
			reasons = append(reasons, reasonInsufficientUsableModels(len(candidates)))
		}
		if c := pickSingleCandidate(candidates); c != nil {
			runCandidates = []Candidate{*c}
		}
	}

	if len(runCandidates) == 0 {
		return CompareRuntimeOutput{
			Mode:            mode,
			Metadata:        metadata,
			Results:         nil,
			FallbackReasons: reasons,
			ContextPack:     serializedPack,
		}
	}

	results, err := Dispatch(ctx, runCandidates, payload, cfg.TimeoutSec, cfg.MaxParallel, req.Caller)
	if err != nil {
		return CompareRuntimeOutput{
			Mode:            mode,
			Metadata:        metadata,
			Results:         nil,
			FallbackReasons: reasons,
			ContextPack:     serializedPack,
		}
	}

	return CompareRuntimeOutput{
		Mode:            mode,
		Metadata:        metadata,
		Results:         results,
		FallbackReasons: reasons,
		ContextPack:     serializedPack,
	}
}

func bridgeLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// pickSingleCandidate selects the candidate to run in single mode: the
// first default candidate, else the first candidate overall, else none.
func pickSingleCandidate(candidates []Candidate) *Candidate {
	for i, c := range candidates {
		if c.IsDefault {
			return &candidates[i]
		}
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

func reasonInsufficientUsableModels(n int) string {
	// The observed candidate count compared against the fan-out floor of
	// two usable candidates.
	return "INSUFFICIENT_USABLE_MODELS: " + strconv.Itoa(n) + "<2"
}
