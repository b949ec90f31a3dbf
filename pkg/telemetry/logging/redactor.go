package logging

import (
	"io"
	"regexp"
)

// credentialPatterns match secrets that must never appear in log
// output: provider-style API keys and bearer tokens.
var credentialPatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{
		regex:       regexp.MustCompile(`sk-[a-zA-Z0-9_\-]+`),
		replacement: "sk-***",
	},
	{
		regex:       regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
	{
		regex:       regexp.MustCompile(`(?i)(api[-_]?key[=:]\s*)\S+`),
		replacement: "$1***",
	},
}

// Redactor is an io.Writer that masks credentials before passing log
// lines to the underlying writer.
//
// Masking at the writer layer, below the slog handler, means every
// attribute and message is covered without cooperation from call
// sites. slog handlers write one complete line per call, so matching
// per Write is safe.
type Redactor struct {
	next io.Writer
}

// NewRedactor wraps next with credential masking.
func NewRedactor(next io.Writer) *Redactor {
	return &Redactor{next: next}
}

// Write implements io.Writer.
func (r *Redactor) Write(p []byte) (int, error) {
	out := p
	for _, pattern := range credentialPatterns {
		out = pattern.regex.ReplaceAll(out, []byte(pattern.replacement))
	}
	if _, err := r.next.Write(out); err != nil {
		return 0, err
	}
	// Report the original length so slog never sees a short write.
	return len(p), nil
}

// RedactAPIKey masks an API key, keeping only a short prefix for
// identification.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
