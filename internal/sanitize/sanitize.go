// Package sanitize provides shared sanitization for chat message content.
//
// Transcripts are rendered in contexts that historically interpreted markup,
// so angle brackets are stripped from every message before it is stored or
// sent. Control characters are removed as well because transcripts round-trip
// through terminal output.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxMessageLength is the maximum stored length of a single message, in
// bytes. The backend rejects longer analyze requests; truncating here keeps
// persisted transcripts consistent with what was actually sent.
const MaxMessageLength = 4096

// Message sanitizes user or assistant message content.
//
// Rules applied:
//   - Removes '<' and '>'
//   - Removes control characters except newline and tab
//   - Replaces invalid UTF-8 with the replacement rune
//   - Trims surrounding whitespace
//   - Truncates to MaxMessageLength at a rune boundary
func Message(content string) string {
	if content == "" {
		return ""
	}

	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, string(utf8.RuneError))
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, r := range content {
		switch {
		case r == '<' || r == '>':
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > MaxMessageLength {
		out = truncateAtRune(out, MaxMessageLength)
	}
	return out
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
