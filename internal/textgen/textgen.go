// Package textgen wraps the generative-language service used to rephrase
// card prompts and describe spelling words.
package textgen

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Generator produces text for cards. Implementations return
// apperr.ErrNoContent when the service answered with nothing usable.
type Generator interface {
	// Rephrase returns up to n distinct rewordings of text. Fewer than n is
	// not an error; zero is.
	Rephrase(ctx context.Context, text string, n int) ([]string, error)
	// Describe returns a short hint phrase for word.
	Describe(ctx context.Context, word string) (string, error)
}

// SplitLines splits a free-text answer on newlines, trimming each line and
// dropping blank ones.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// CleanDescription trims the answer, strips one trailing period and
// upper-cases the first letter.
func CleanDescription(text string) string {
	d := strings.TrimSpace(text)
	d = strings.TrimSuffix(d, ".")
	if d == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(d)
	if unicode.IsLower(r) {
		d = string(unicode.ToUpper(r)) + d[size:]
	}
	return d
}
