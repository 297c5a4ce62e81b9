package modelcompare

import "strings"

// ProviderOpenAICompatible is the only provider kind admissible as an
// external candidate.
const ProviderOpenAICompatible = "openai_compatible"

// Candidate is a resolved remote model endpoint admissible for dispatch.
// Immutable once constructed.
type Candidate struct {
	ID        string
	Provider  string
	Model     string
	BaseURL   string
	Enabled   bool
	APIKeyEnv string
	APIKey    string // resolved secret
	IsDefault bool
}

// IsExternal reports whether a candidate engages the context bridge: it
// must be openai_compatible and not the session default.
func (c Candidate) IsExternal() bool {
	return c.Provider == ProviderOpenAICompatible && !c.IsDefault
}

// RawCandidate mirrors one entry of the `candidates` configuration sequence
// before resolution/secret attachment.
type RawCandidate struct {
	ID        string
	Provider  string
	Model     string
	BaseURL   string
	Enabled   bool
	APIKeyEnv string
}

// ResolveCandidates validates raw configuration entries, attaches secrets
// from the environment mapping, and appends the session default candidate
// when configured. It returns the admitted candidates (external candidates
// first, in config order, default appended last) and the ordered fallback
// reasons discovered along the way.
func ResolveCandidates(rawCandidates []RawCandidate, cfg RuntimeConfig, defaultCandidate *Candidate, env map[string]string) ([]Candidate, []string) {
	var reasons []string
	var candidates []Candidate

	enabled := make([]RawCandidate, 0, len(rawCandidates))
	for _, rc := range rawCandidates {
		if rc.Enabled {
			enabled = append(enabled, rc)
		}
	}
	if len(enabled) == 0 {
		reasons = append(reasons, "NO_ENABLED_CANDIDATES: candidates[*].enabled=true count=0")
	}

	for _, rc := range enabled {
		if rc.Provider != ProviderOpenAICompatible {
			reasons = append(reasons, "UNSUPPORTED_PROVIDER: id="+rc.ID+", provider="+rc.Provider)
			continue
		}
		if strings.TrimSpace(rc.APIKeyEnv) == "" {
			reasons = append(reasons, "MISSING_API_KEY: candidate_id="+rc.ID)
			continue
		}
		secret := strings.TrimSpace(env[rc.APIKeyEnv])
		if secret == "" {
			reasons = append(reasons, "MISSING_API_KEY: candidate_id="+rc.ID)
			continue
		}
		candidates = append(candidates, Candidate{
			ID:        rc.ID,
			Provider:  rc.Provider,
			Model:     rc.Model,
			BaseURL:   rc.BaseURL,
			Enabled:   true,
			APIKeyEnv: rc.APIKeyEnv,
			APIKey:    secret,
			IsDefault: false,
		})
	}

	if cfg.IncludeDefaultModel {
		if defaultCandidate != nil {
			d := *defaultCandidate
			d.IsDefault = true
			candidates = append(candidates, d)
		} else {
			reasons = append(reasons, "DEFAULT_MODEL_UNAVAILABLE: include_default_model=true")
		}
	}

	return candidates, reasons
}
