package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/models"
)

// Defaults for the local AnkiConnect bridge.
const (
	DefaultURL     = "http://127.0.0.1:8765"
	DefaultVersion = 6
)

// Bridge actions.
const (
	actionVersion          = "version"
	actionDeckNames        = "deckNames"
	actionFindNotes        = "findNotes"
	actionNotesInfo        = "notesInfo"
	actionAddNote          = "addNote"
	actionUpdateNoteFields = "updateNoteFields"
	actionUpdateNoteModel  = "updateNoteModel"
)

// Bridge implements Provider over the AnkiConnect JSON protocol.
//
// The HTTP client carries no timeout; a hung bridge blocks until ctx is done.
type Bridge struct {
	url     string
	version int
	client  *http.Client
}

// NewBridge creates a Bridge for the given endpoint and protocol version.
func NewBridge(url string, version int) *Bridge {
	if url == "" {
		url = DefaultURL
	}
	if version <= 0 {
		version = DefaultVersion
	}
	return &Bridge{url: url, version: version, client: &http.Client{}}
}

// URL returns the bridge endpoint.
func (b *Bridge) URL() string { return b.url }

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

// call performs one request and decodes the result into out (if non-nil).
func (b *Bridge) call(ctx context.Context, action string, params, out any) error {
	body, err := json.Marshal(request{Action: action, Version: b.version, Params: params})
	if err != nil {
		return fmt.Errorf("storage: %s: encode request: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("storage: %s: %w: %w", action, apperr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage: %s: %w: %w", action, apperr.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("storage: %s: %w: http status %d", action, apperr.ErrTransport, resp.StatusCode)
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("storage: %s: %w: decode response: %w", action, apperr.ErrTransport, err)
	}
	rawResult, hasResult := envelope["result"]
	rawErr, hasErr := envelope["error"]
	if !hasResult || !hasErr {
		return fmt.Errorf("storage: %s: %w: malformed response: missing result or error field", action, apperr.ErrTransport)
	}

	var msg *string
	if err := json.Unmarshal(rawErr, &msg); err != nil {
		return fmt.Errorf("storage: %s: %w: malformed error field: %w", action, apperr.ErrTransport, err)
	}
	if msg != nil {
		return &apperr.BridgeError{Action: action, Message: *msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rawResult, out); err != nil {
		return fmt.Errorf("storage: %s: %w: decode result: %w", action, apperr.ErrTransport, err)
	}
	return nil
}

// Version returns the bridge protocol version.
func (b *Bridge) Version(ctx context.Context) (int, error) {
	var v int
	if err := b.call(ctx, actionVersion, nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// DeckNames lists deck names.
func (b *Bridge) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := b.call(ctx, actionDeckNames, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// FindNotes passes query through to the store unmodified.
func (b *Bridge) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := b.call(ctx, actionFindNotes, map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

type fieldInfo struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

type noteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Tags      []string             `json:"tags"`
	Fields    map[string]fieldInfo `json:"fields"`
}

func (n noteInfo) toNote() models.Note {
	note := models.Note{
		ID:        n.NoteID,
		ModelName: n.ModelName,
		Fields:    make(map[string]string, len(n.Fields)),
		Tags:      n.Tags,
	}
	for name, f := range n.Fields {
		note.Fields[name] = f.Value
		note.FieldOrder = append(note.FieldOrder, name)
	}
	sort.SliceStable(note.FieldOrder, func(i, j int) bool {
		return n.Fields[note.FieldOrder[i]].Order < n.Fields[note.FieldOrder[j]].Order
	})
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return note
}

// NotesInfo fetches note details. An empty id list makes no request.
// Unknown ids come back as empty notes (see models.Note.Empty).
func (b *Bridge) NotesInfo(ctx context.Context, ids []int64) ([]models.Note, error) {
	if len(ids) == 0 {
		return []models.Note{}, nil
	}
	var infos []noteInfo
	if err := b.call(ctx, actionNotesInfo, map[string]any{"notes": ids}, &infos); err != nil {
		return nil, err
	}
	notes := make([]models.Note, len(infos))
	for i, info := range infos {
		notes[i] = info.toNote()
	}
	return notes, nil
}

type addNoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

type newNote struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   addNoteOptions    `json:"options"`
	Tags      []string          `json:"tags,omitempty"`
}

// AddNote creates a note. Duplicates within the deck are rejected by the store
// and surface as apperr.ErrDuplicate.
func (b *Bridge) AddNote(ctx context.Context, deck, model string, fields map[string]string, tags []string) (int64, error) {
	params := map[string]any{"note": newNote{
		DeckName:  deck,
		ModelName: model,
		Fields:    fields,
		Options:   addNoteOptions{AllowDuplicate: false, DuplicateScope: "deck"},
		Tags:      tags,
	}}
	var id *int64
	if err := b.call(ctx, actionAddNote, params, &id); err != nil {
		return 0, err
	}
	if id == nil || *id == 0 {
		return 0, &apperr.BridgeError{Action: actionAddNote, Message: "note was not created"}
	}
	return *id, nil
}

type fieldsUpdate struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// UpdateNoteFields overwrites field values without touching model or tags.
func (b *Bridge) UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error {
	return b.call(ctx, actionUpdateNoteFields, map[string]any{"note": fieldsUpdate{ID: id, Fields: fields}}, nil)
}

// UpdateNoteModel switches the note to model and overwrites fields and tags.
// A nil tags slice leaves tags unchanged; an empty slice clears them.
func (b *Bridge) UpdateNoteModel(ctx context.Context, id int64, model string, fields map[string]string, tags []string) error {
	note := map[string]any{
		"id":        id,
		"modelName": model,
		"fields":    fields,
	}
	if tags != nil {
		note["tags"] = tags
	}
	return b.call(ctx, actionUpdateNoteModel, map[string]any{"note": note}, nil)
}

// Verify *Bridge satisfies Provider at compile time.
var _ Provider = (*Bridge)(nil)
