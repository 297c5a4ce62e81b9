package modelcompare

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extraction tuning constants.
const (
	ExtractMaxFiles        = 8
	ExtractSnippetsPerFile = 2
	MaxKeywordTokens       = 24
	MaxFacts               = 8
	snippetWindowLines     = 80
	textProbeMaxBytes      = 512 * 1024
	textProbeHeadBytes     = 2048
)

// ignoredDirNames are skipped at any depth during the keyword file walk.
var ignoredDirNames = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".venv":        {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
	"__pycache__":  {},
}

// SnippetSource identifies how a Snippet was discovered.
type SnippetSource string

const (
	SourceExplicitSnippet SnippetSource = "explicit_snippet"
	SourceExplicitFile    SnippetSource = "explicit_file"
	SourceQuestionPath    SnippetSource = "question_path"
	SourceKeywordSearch   SnippetSource = "keyword_search"
)

// Snippet is an immutable located slice of file content.
type Snippet struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
	Source    SnippetSource
	Priority  int
}

// ExplicitSnippetInput is a caller-supplied snippet request (E1). If Content
// is empty, the workspace file is read and [StartLine, EndLine] sliced.
type ExplicitSnippetInput struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

// ContextPack is the sanitized, budget-bounded collection of facts and
// snippets shared verbatim across all dispatched candidates.
type ContextPack struct {
	Facts    []string
	Snippets []Snippet
	Meta     map[string]any
}

// IsEmpty reports whether the pack carries no facts and no snippets.
func (p ContextPack) IsEmpty() bool {
	return len(p.Facts) == 0 && len(p.Snippets) == 0
}

var (
	latinIdentifierRE = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_-]{1,}`)
	cjkRunRE           = regexp.MustCompile(`\p{Han}{2,}`)
	keywordTokenRE     = regexp.MustCompile(latinIdentifierRE.String() + `|` + cjkRunRE.String())
	pathHintSegmentRE  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// extractKeywords tokenizes the question per the E2 rule: Latin identifiers
// or runs of >=2 CJK ideographs, deduplicated, first-occurrence order, capped
// at MaxKeywordTokens.
func extractKeywords(question string) []string {
	matches := keywordTokenRE.FindAllString(question, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
		if len(out) >= MaxKeywordTokens {
			break
		}
	}
	return out
}

// extractPathHints scans the question for workspace-relative path hints
// (E3): tokens shaped like "segment(/segment)*" with dotted/word segments, or
// a single segment containing a dot. Only hints resolving inside the
// workspace, existing as files, and passing the text-file probe are kept.
func extractPathHints(question, workspace string) []string {
	fields := strings.Fields(question)
	seen := make(map[string]struct{})
	var hints []string
	for _, f := range fields {
		token := strings.Trim(f, `"'`+"`,.;:()[]{}<>")
		if token == "" {
			continue
		}
		isPathShaped := strings.Contains(token, "/")
		isDottedSingle := !isPathShaped && strings.Contains(token, ".")
		if !isPathShaped && !isDottedSingle {
			continue
		}
		segments := strings.Split(token, "/")
		valid := true
		for _, seg := range segments {
			if seg == "" || !pathHintSegmentRE.MatchString(seg) {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		abs, ok := resolveInWorkspace(workspace, token)
		if !ok {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if !isTextFile(abs) {
			continue
		}
		seen[abs] = struct{}{}
		hints = append(hints, token)
	}
	return hints
}

// resolveInWorkspace resolves rel against workspace and verifies the result
// stays inside the workspace tree.
func resolveInWorkspace(workspace, rel string) (string, bool) {
	absWorkspace, err := filepath.Abs(workspace)
	if err != nil {
		return "", false
	}
	abs := filepath.Join(absWorkspace, rel)
	absClean := filepath.Clean(abs)
	wsClean := filepath.Clean(absWorkspace)
	if absClean != wsClean && !strings.HasPrefix(absClean, wsClean+string(filepath.Separator)) {
		return "", false
	}
	return absClean, true
}

// isTextFile implements the text-file probe (E4): size <= 512KiB and the
// first 2048 bytes contain no NUL byte.
func isTextFile(abs string) bool {
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() || info.Size() > textProbeMaxBytes {
		return false
	}
	f, err := os.Open(abs)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, textProbeHeadBytes)
	n, _ := f.Read(buf)
	return !bytes.ContainsRune(buf[:n], 0)
}

type candidateFile struct {
	path     string
	priority int
	source   SnippetSource
}

// buildCandidateFileSet assembles the path -> (priority, source) mapping of
// E4: explicit files, then path hints, then a keyword-matching workspace
// walk up to ExtractMaxFiles total entries.
func buildCandidateFileSet(workspace string, explicitFiles []string, pathHints []string, keywords []string) []candidateFile {
	order := make([]string, 0, ExtractMaxFiles)
	info := make(map[string]candidateFile)

	add := func(path string, priority int, source SnippetSource) {
		if _, ok := info[path]; ok {
			return
		}
		info[path] = candidateFile{path: path, priority: priority, source: source}
		order = append(order, path)
	}

	for _, f := range explicitFiles {
		add(f, 0, SourceExplicitFile)
	}
	for _, h := range pathHints {
		add(h, 1, SourceQuestionPath)
	}

	if len(order) < ExtractMaxFiles && len(keywords) > 0 {
		lowerKeywords := make([]string, len(keywords))
		for i, k := range keywords {
			lowerKeywords[i] = strings.ToLower(k)
		}
		_ = filepath.WalkDir(workspace, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if len(order) >= ExtractMaxFiles {
				return filepath.SkipAll
			}
			if d.IsDir() {
				if _, ignored := ignoredDirNames[d.Name()]; ignored {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(workspace, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if _, already := info[rel]; already {
				return nil
			}
			if !isTextFile(path) {
				return nil
			}
			if fileMatchesKeywords(path, lowerKeywords) {
				add(rel, 2, SourceKeywordSearch)
			}
			return nil
		})
	}

	out := make([]candidateFile, 0, len(order))
	for _, p := range order {
		out = append(out, info[p])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].path < out[j].path
	})
	return out
}

// fileMatchesKeywords reports whether any line of the file contains any
// keyword as a case-insensitive substring.
func fileMatchesKeywords(path string, lowerKeywords []string) bool {
	lines, err := readLines(path)
	if err != nil {
		return false
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, kw := range lowerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}

// keywordHitLines finds up to ExtractSnippetsPerFile 1-based line numbers
// whose content contains any keyword as a case-insensitive substring. If
// none are found, [1] is returned so explicit/path-hint files are always
// represented (E5).
func keywordHitLines(lines []string, lowerKeywords []string) []int {
	var hits []int
	for i, line := range lines {
		if len(hits) >= ExtractSnippetsPerFile {
			break
		}
		lower := strings.ToLower(line)
		for _, kw := range lowerKeywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, i+1)
				break
			}
		}
	}
	if len(hits) == 0 {
		hits = []int{1}
	}
	return hits
}

// Extract builds a raw (un-redacted, un-truncated) ContextPack for question
// against workspace, in six phases (E1-E6).
func Extract(question, workspace string, explicitFiles []string, explicitSnippets []ExplicitSnippetInput) ContextPack {
	var snippets []Snippet

	// E1 — explicit snippets.
	for _, es := range explicitSnippets {
		if strings.TrimSpace(es.Path) == "" {
			continue
		}
		content := es.Content
		start, end := es.StartLine, es.EndLine
		if content == "" {
			abs, ok := resolveInWorkspace(workspace, es.Path)
			if !ok {
				continue
			}
			lines, err := readLines(abs)
			if err != nil {
				continue
			}
			s, e := clampRange(start, end, len(lines))
			if s > e {
				continue
			}
			content = strings.Join(lines[s-1:e], "\n")
			start, end = s, e
		}
		if content == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			Path: es.Path, StartLine: start, EndLine: end, Content: content,
			Source: SourceExplicitSnippet, Priority: 0,
		})
	}

	// E2 — keyword extraction.
	keywords := extractKeywords(question)
	lowerKeywords := make([]string, len(keywords))
	for i, k := range keywords {
		lowerKeywords[i] = strings.ToLower(k)
	}

	// E3 — path hints.
	pathHints := extractPathHints(question, workspace)

	// E4 — candidate file set.
	files := buildCandidateFileSet(workspace, explicitFiles, pathHints, keywords)

	// E5 — snippet extraction per file.
	for _, cf := range files {
		abs, ok := resolveInWorkspace(workspace, cf.path)
		if !ok {
			continue
		}
		lines, err := readLines(abs)
		if err != nil {
			continue
		}
		n := len(lines)
		if n == 0 {
			continue
		}
		for _, h := range keywordHitLines(lines, lowerKeywords) {
			start := h - snippetWindowLines
			if start < 1 {
				start = 1
			}
			end := h + snippetWindowLines
			if end > n {
				end = n
			}
			snippets = append(snippets, Snippet{
				Path: cf.path, StartLine: start, EndLine: end,
				Content: strings.Join(lines[start-1:end], "\n"),
				Source:  cf.source, Priority: cf.priority,
			})
		}
	}

	// E6 — facts.
	factCount := len(snippets)
	if factCount > MaxFacts {
		factCount = MaxFacts
	}
	facts := make([]string, 0, factCount)
	for _, s := range snippets[:factCount] {
		facts = append(facts, factLine(s))
	}

	return ContextPack{Facts: facts, Snippets: snippets, Meta: map[string]any{}}
}

func factLine(s Snippet) string {
	return s.Path + ":" + strconv.Itoa(s.StartLine) + "-" + strconv.Itoa(s.EndLine) + " (source=" + string(s.Source) + ")"
}

func clampRange(start, end, n int) (int, int) {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	return start, end
}
