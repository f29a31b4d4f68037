package shared

import "unicode/utf8"

// TruncateString caps s at max bytes without splitting a multi-byte rune,
// so truncated values stay valid UTF-8 for storage.
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
