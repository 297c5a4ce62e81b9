package modelcompare

// BuildPack composes extraction, redaction, and truncation into a finalized
// ContextPack: truncate(redact(extract(...))). Any meta key left unset by
// truncation is defaulted to its computed/zero value.
func BuildPack(question, workspace string, budget Budget, explicitFiles []string, explicitSnippets []ExplicitSnippetInput) ContextPack {
	raw := Extract(question, workspace, explicitFiles, explicitSnippets)
	redacted := redactPack(raw)
	pack := Truncate(redacted, budget)

	if _, ok := pack.Meta["files"]; !ok {
		pack.Meta["files"] = len(distinctPathsOf(pack.Snippets))
	}
	if _, ok := pack.Meta["snippets"]; !ok {
		pack.Meta["snippets"] = len(pack.Snippets)
	}
	if _, ok := pack.Meta["redaction_count"]; !ok {
		pack.Meta["redaction_count"] = 0
	}
	if _, ok := pack.Meta["truncated"]; !ok {
		pack.Meta["truncated"] = false
	}
	return pack
}

// redactPack applies Redact to every fact and every snippet's content,
// summing hit counts into meta.redaction_count.
func redactPack(pack ContextPack) ContextPack {
	total := 0

	facts := make([]string, len(pack.Facts))
	for i, f := range pack.Facts {
		clean, n := Redact(f)
		facts[i] = clean
		total += n
	}

	snippets := make([]Snippet, len(pack.Snippets))
	for i, s := range pack.Snippets {
		clean, n := Redact(s.Content)
		s.Content = clean
		snippets[i] = s
		total += n
	}

	meta := map[string]any{}
	for k, v := range pack.Meta {
		meta[k] = v
	}
	meta["redaction_count"] = total

	return ContextPack{Facts: facts, Snippets: snippets, Meta: meta}
}
