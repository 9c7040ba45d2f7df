package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/storage"
)

// Summary is the outcome of writing one batch of cards.
type Summary struct {
	RunID      string   `json:"run_id,omitempty"`
	Deck       string   `json:"deck"`
	DryRun     bool     `json:"dry_run"`
	Generated  int      `json:"generated"`
	Created    int      `json:"created"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// Writer adds generated cards to a deck one at a time.
type Writer struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewWriter creates a Writer backed by store.
func NewWriter(store storage.Provider, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}
}

// Write adds every card to deck. Per-card failures are recorded in the
// summary and never stop the batch; duplicates are counted separately.
// In dry-run mode the store is never contacted and every card counts as
// created.
func (w *Writer) Write(ctx context.Context, deck string, run Run, cards []models.Card, dryRun bool) Summary {
	s := Summary{RunID: run.ID, Deck: deck, DryRun: dryRun, Generated: len(cards), Errors: []string{}}

	if dryRun {
		for _, c := range cards {
			w.logger.Debug("cards: dry run", slog.String("model", c.Model), slog.String("front", c.Front()))
		}
		s.Created = len(cards)
		return s
	}

	for i, c := range cards {
		if err := ctx.Err(); err != nil {
			s.Errors = append(s.Errors, fmt.Sprintf("stopped after %d of %d cards: %v", i, len(cards), err))
			break
		}
		id, err := w.store.AddNote(ctx, deck, c.Model, c.Fields, c.Tags)
		switch {
		case errors.Is(err, apperr.ErrDuplicate):
			s.Duplicates++
			w.logger.Info("cards: duplicate skipped", slog.String("front", c.Front()))
		case err != nil:
			s.Errors = append(s.Errors, fmt.Sprintf("%q: %v", c.Front(), err))
			w.logger.Warn("cards: add failed", slog.String("front", c.Front()), slog.String("error", err.Error()))
		default:
			s.Created++
			w.logger.Debug("cards: added", slog.Int64("id", id), slog.String("front", c.Front()))
		}
	}
	return s
}
