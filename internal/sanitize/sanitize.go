// Package sanitize strips unsafe bytes from untrusted text and flags
// prompt-injection phrases before anything reaches the model.
package sanitize

import "strings"

// injectionPatterns are manipulation phrases matched as case-insensitive
// substrings. Substring matching is trivially bypassable by rephrasing;
// that is an accepted limitation of this layer, not a bug.
var injectionPatterns = []string{
	"ignore previous", "ignore all", "disregard", "forget everything",
	"new instructions", "system prompt", "you are now", "act as",
	"pretend to be", "jailbreak", "dan mode", "developer mode",
}

// Clean truncates input to maxLen bytes, drops control bytes other than
// newline and tab, collapses runs of spaces and tabs into a single space,
// and trims surrounding whitespace. Bytes >= 0x80 pass through unchanged,
// so non-ASCII text survives. It is idempotent.
func Clean(input string, maxLen int) string {
	n := len(input)
	if maxLen < n {
		n = maxLen
	}
	if n < 0 {
		n = 0
	}

	var b strings.Builder
	b.Grow(n)
	lastSpace := false
	for i := 0; i < n; i++ {
		c := input[i]
		if c >= 32 || c == '\n' || c == '\t' {
			isSpace := c == ' ' || c == '\t'
			if !isSpace || !lastSpace {
				if isSpace {
					b.WriteByte(' ')
				} else {
					b.WriteByte(c)
				}
			}
			lastSpace = isSpace
		}
	}
	return strings.Trim(b.String(), " \n\t")
}

// ContainsInjection reports whether input contains any denylisted
// manipulation phrase.
func ContainsInjection(input string) bool {
	lower := strings.ToLower(input)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
