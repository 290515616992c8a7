// Package redact masks secrets in text that leaves the process: persisted
// run records, log lines, and notification payloads. Matching runs over
// NFKC-normalized input so unicode lookalike forms cannot smuggle a secret
// past the patterns.
package redact

import (
	"strings"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

// Mask replaces every redacted span.
const Mask = "[REDACTED]"

// tokenPatterns cover credential shapes that show up in action output and
// error messages: bot tokens, bearer headers, key=value pairs, URL userinfo.
var tokenPatterns = []struct {
	pattern *re2.Regexp
	replace string
}{
	{re2.MustCompile(`\b\d{6,12}:[A-Za-z0-9_-]{30,}\b`), Mask},
	{re2.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`), "Bearer " + Mask},
	{re2.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|token|secret|password)(\s*[=:]\s*)[^\s,;"']+`), "${1}${2}" + Mask},
	{re2.MustCompile(`(https?://)[^/\s:@]+:[^/\s:@]+@`), "${1}" + Mask + "@"},
}

// Redactor masks known secret values and credential-shaped substrings.
type Redactor struct {
	secrets []string
}

// New creates a redactor. secrets are literal values (tokens, keys) that must
// never appear verbatim in output; empty and very short values are ignored to
// avoid masking unrelated text.
func New(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if len(s) >= 6 {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// Apply returns text with all secrets masked.
func (r *Redactor) Apply(text string) string {
	if text == "" {
		return text
	}

	out := norm.NFKC.String(text)

	for _, s := range r.secrets {
		out = strings.ReplaceAll(out, s, Mask)
	}
	for _, tp := range tokenPatterns {
		out = tp.pattern.ReplaceAllString(out, tp.replace)
	}
	return out
}
