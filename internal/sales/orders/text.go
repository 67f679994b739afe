package orders

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText puts free-text order fields in NFC and collapses whitespace, so
// names typed with different input methods compare and search equal.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if c := cleanText(it); c != "" {
			out = append(out, c)
		}
	}
	return out
}
