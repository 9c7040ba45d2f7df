package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/models"
)

const tagSpelling = "spelling-cloze"

// Describer returns a short hint for a word. textgen.Generator satisfies it.
type Describer interface {
	Describe(ctx context.Context, word string) (string, error)
}

// SpellingResult holds spelling cards and the words that got no hint.
type SpellingResult struct {
	Cards       []models.Card
	Undescribed []string
}

// Spelling builds one Cloze card per word with one deletion per syllable,
// prefixed by a hint from d when available. A missing hint never drops the
// card. A nil d skips hints entirely.
func Spelling(ctx context.Context, words []string, d Describer, run Run, logger *slog.Logger) (SpellingResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res SpellingResult
	out := newCollection()
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		hint := ""
		if d != nil {
			var err error
			hint, err = d.Describe(ctx, word)
			if err != nil {
				if !errors.Is(err, apperr.ErrNoContent) {
					logger.Warn("cards: describe failed", slog.String("word", word), slog.String("error", err.Error()))
				}
				res.Undescribed = append(res.Undescribed, word)
				hint = ""
			}
		}
		out.add(cloze(SpellingCloze(hint, word), "Original word: "+word, run.runFirst(models.TagGenerated, tagSpelling)))
	}
	res.Cards = out.cards
	return res, nil
}

// SpellingCloze renders "hint: {{c1::syl}}{{c2::syl}}", or just the
// deletions when hint is empty.
func SpellingCloze(hint, word string) string {
	var b strings.Builder
	for i, syl := range Syllabify(word) {
		fmt.Fprintf(&b, "{{c%d::%s}}", i+1, syl)
	}
	if hint == "" {
		return b.String()
	}
	return hint + ": " + b.String()
}
