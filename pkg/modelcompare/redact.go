package modelcompare

import (
	"regexp"
	"strings"
)

// Redaction replacement tokens.
const (
	redactedPrivateKeyBlock = "<REDACTED_PRIVATE_KEY_BLOCK>"
	redactedAuthorization   = "<REDACTED_AUTHORIZATION>"
	redactedCookie          = "<REDACTED_COOKIE>"
	redactedBearer          = "<REDACTED_BEARER>"
	redactedSecret          = "<REDACTED_SECRET>"
)

// Patterns are applied in this fixed order on every call to Redact: a
// private-key PEM block, an Authorization header line, a Cookie/Set-Cookie
// header line, an inline Bearer token, and a quoted or bare key=value secret.
var (
	rePrivateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	reAuthHeaderLine  = regexp.MustCompile(`(?im)^([ \t]*Authorization[ \t]*:)[^\r\n]*$`)
	reCookieLine      = regexp.MustCompile(`(?im)^([ \t]*(?:Set-Cookie|Cookie)[ \t]*:)[^\r\n]*$`)
	reBearerInline    = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._\-+/=]+`)
	reKeyValueSecret  = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password)\b(\s*[:=]\s*)("([^"]*)"|'([^']*)'|([^\s,}]+))`)
)

// Redact applies the fixed pattern pipeline to text and returns the scrubbed
// text plus the number of substitutions performed. Idempotent: Redact(Redact(x))
// == Redact(x), since the Bearer replacement no longer matches the Bearer
// pattern and the header and key=value branches leave a value that is
// already the replacement token unchanged and uncounted.
func Redact(text string) (string, int) {
	count := 0

	text, n := replaceCounting(rePrivateKeyBlock, text, redactedPrivateKeyBlock)
	count += n

	text = reAuthHeaderLine.ReplaceAllStringFunc(text, func(m string) string {
		loc := reAuthHeaderLine.FindStringSubmatch(m)
		if strings.TrimSpace(m[len(loc[1]):]) == redactedAuthorization {
			return m
		}
		count++
		return loc[1] + " " + redactedAuthorization
	})

	text = reCookieLine.ReplaceAllStringFunc(text, func(m string) string {
		loc := reCookieLine.FindStringSubmatch(m)
		if strings.TrimSpace(m[len(loc[1]):]) == redactedCookie {
			return m
		}
		count++
		return loc[1] + " " + redactedCookie
	})

	text, n = replaceCounting(reBearerInline, text, "Bearer "+redactedBearer)
	count += n

	text = reKeyValueSecret.ReplaceAllStringFunc(text, func(m string) string {
		parts := reKeyValueSecret.FindStringSubmatch(m)
		value := parts[3]
		quote := ""
		inner := value
		switch {
		case strings.HasPrefix(value, `"`):
			quote = `"`
			inner = parts[4]
		case strings.HasPrefix(value, "'"):
			quote = "'"
			inner = parts[5]
		}
		if inner == redactedSecret {
			return m
		}
		count++
		return parts[1] + parts[2] + quote + redactedSecret + quote
	})

	return text, count
}

func replaceCounting(re *regexp.Regexp, text, replacement string) (string, int) {
	n := 0
	out := re.ReplaceAllStringFunc(text, func(string) string {
		n++
		return replacement
	})
	return out, n
}
