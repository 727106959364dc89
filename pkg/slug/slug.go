package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name, strips diacritics and joins the remaining
// alphanumeric runs with single hyphens: "Café Crème 2" -> "cafe-creme-2".
// The result is capped at maxLen bytes without a trailing hyphen; maxLen <= 0
// means no cap.
func Generate(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.Trim(nonAlnum.ReplaceAllString(b.String(), "-"), "-")
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	return s
}
