package catalog

import "strings"

// Slugify lowercases the value and collapses runs of non-alphanumeric
// characters into single hyphens.
func Slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
