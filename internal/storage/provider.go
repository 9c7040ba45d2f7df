// Package storage defines the remote note store abstraction and its
// AnkiConnect-backed implementation.
package storage

import (
	"context"

	"github.com/starford/ankigen/internal/models"
)

// Provider is the interface for note store operations. Every call is a
// single blocking request.
type Provider interface {
	// Version returns the bridge protocol version.
	Version(ctx context.Context) (int, error)
	// DeckNames lists every deck in the collection.
	DeckNames(ctx context.Context) ([]string, error)
	// FindNotes resolves an opaque store query to note ids, in store order.
	FindNotes(ctx context.Context, query string) ([]int64, error)
	// NotesInfo fetches full details for the given ids.
	NotesInfo(ctx context.Context, ids []int64) ([]models.Note, error)
	// AddNote creates a note and returns its id.
	AddNote(ctx context.Context, deck, model string, fields map[string]string, tags []string) (int64, error)
	// UpdateNoteFields overwrites field values of an existing note.
	UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error
	// UpdateNoteModel overwrites model, fields and tags of an existing note.
	UpdateNoteModel(ctx context.Context, id int64, model string, fields map[string]string, tags []string) error
}
