package composer

import (
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns the distinct links in text in order of appearance.
func ExtractURLs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, u := range urlRe.FindAllString(text, -1) {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// removeLink strips the first occurrence of u from text.
func removeLink(text, u string) string {
	return strings.TrimSpace(strings.Replace(text, u, "", 1))
}
