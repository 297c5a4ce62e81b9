package modelcompare

import "sort"

// Truncate enforces the file/snippet/line/character budgets on a redacted
// pack, applied in strict order, and finalizes meta.
func Truncate(pack ContextPack, budget Budget) ContextPack {
	redactionCount, _ := pack.Meta["redaction_count"].(int)
	truncated := false

	snippets := append([]Snippet(nil), pack.Snippets...)

	// 1. Sort by (priority asc, path asc, start_line asc).
	sort.SliceStable(snippets, func(i, j int) bool {
		if snippets[i].Priority != snippets[j].Priority {
			return snippets[i].Priority < snippets[j].Priority
		}
		if snippets[i].Path != snippets[j].Path {
			return snippets[i].Path < snippets[j].Path
		}
		return snippets[i].StartLine < snippets[j].StartLine
	})

	// 2. File cap.
	distinctPaths := make([]string, 0, len(snippets))
	seenPaths := make(map[string]struct{})
	for _, s := range snippets {
		if _, ok := seenPaths[s.Path]; !ok {
			seenPaths[s.Path] = struct{}{}
			distinctPaths = append(distinctPaths, s.Path)
		}
	}
	if len(distinctPaths) > budget.MaxFiles {
		truncated = true
		distinctPaths = distinctPaths[:budget.MaxFiles]
	}
	keptPaths := make(map[string]struct{}, len(distinctPaths))
	for _, p := range distinctPaths {
		keptPaths[p] = struct{}{}
	}
	filtered := snippets[:0:0]
	for _, s := range snippets {
		if _, ok := keptPaths[s.Path]; ok {
			filtered = append(filtered, s)
		}
	}
	snippets = filtered

	// 3. Snippet cap.
	if len(snippets) > budget.MaxSnippets {
		truncated = true
		snippets = snippets[:budget.MaxSnippets]
	}

	// 4. Line cap.
	for i, s := range snippets {
		lineCount := countLines(s.Content)
		if lineCount > budget.MaxLinesPerSnippet {
			truncated = true
			s.Content = firstNLines(s.Content, budget.MaxLinesPerSnippet)
			s.EndLine = s.StartLine + budget.MaxLinesPerSnippet - 1
			snippets[i] = s
		}
	}

	// 5. Character cap.
	facts := make([]string, 0, len(pack.Facts))
	remain := budget.MaxCharsTotal
	factsStopped := false
	for _, f := range pack.Facts {
		cost := len(f) + 1
		if cost <= remain {
			facts = append(facts, f)
			remain -= cost
			continue
		}
		if remain > 1 {
			facts = append(facts, f[:remain-1]+"…")
		}
		truncated = true
		remain = 0
		factsStopped = true
		break
	}

	finalSnippets := make([]Snippet, 0, len(snippets))
	if !factsStopped {
		for _, s := range snippets {
			cost := len(s.Content) + 1
			if cost <= remain {
				finalSnippets = append(finalSnippets, s)
				remain -= cost
				continue
			}
			if remain > 1 {
				cut := s.Content[:remain-1] + "…"
				linesCut := countLines(cut)
				finalSnippets = append(finalSnippets, Snippet{
					Path: s.Path, StartLine: s.StartLine,
					EndLine: s.StartLine + linesCut - 1,
					Content: cut, Source: s.Source, Priority: s.Priority,
				})
			}
			truncated = true
			break
		}
	}

	meta := map[string]any{
		"files":           len(distinctPathsOf(finalSnippets)),
		"snippets":        len(finalSnippets),
		"redaction_count": redactionCount,
		"truncated":       truncated,
	}

	return ContextPack{Facts: facts, Snippets: finalSnippets, Meta: meta}
}

func distinctPathsOf(snippets []Snippet) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range snippets {
		if _, ok := seen[s.Path]; !ok {
			seen[s.Path] = struct{}{}
			out = append(out, s.Path)
		}
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func firstNLines(s string, n int) string {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return s[:i]
			}
		}
	}
	return s
}
