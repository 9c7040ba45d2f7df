// Package cards builds flashcards from parsed input and writes them to the
// store.
package cards

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/starford/ankigen/internal/models"
)

// Run identifies one generation run. Every card of a tagged run carries ID
// as a tag so the batch can be found (and removed) later.
type Run struct {
	ID string
}

// NewRun starts a run. An untagged run has an empty ID.
func NewRun(tagged bool) Run {
	if !tagged {
		return Run{}
	}
	return Run{ID: uuid.NewString()}
}

// Tagged reports whether cards of this run carry the run tag.
func (r Run) Tagged() bool { return r.ID != "" }

// withRun appends the run tag, when present, to tags.
func (r Run) withRun(tags ...string) []string {
	if r.Tagged() {
		tags = append(tags, r.ID)
	}
	return tags
}

// runFirst places the run tag, when present, before tags.
func (r Run) runFirst(tags ...string) []string {
	if !r.Tagged() {
		return tags
	}
	return append([]string{r.ID}, tags...)
}

// TitleTag turns a free-form title into a tag-safe token such as
// "poem-the-road-not-taken".
func TitleTag(prefix, title string) string {
	s := slug.Make(title)
	if s == "" {
		return prefix
	}
	return prefix + "-" + s
}

// collection accumulates cards, dropping any whose front was already seen.
type collection struct {
	cards []models.Card
	seen  map[string]struct{}
}

func newCollection() *collection {
	return &collection{seen: make(map[string]struct{})}
}

func (c *collection) add(card models.Card) {
	front := card.Front()
	if _, dup := c.seen[front]; dup {
		return
	}
	c.seen[front] = struct{}{}
	c.cards = append(c.cards, card)
}

func basic(front, back string, tags []string) models.Card {
	return models.Card{
		Model:  models.ModelBasic,
		Fields: map[string]string{"Front": front, "Back": back},
		Tags:   tags,
	}
}

func cloze(text, extra string, tags []string) models.Card {
	return models.Card{
		Model:  models.ModelCloze,
		Fields: map[string]string{"Text": text, "Extra": extra},
		Tags:   tags,
	}
}
