// Package testutil provides an in-memory AnkiConnect bridge and a scripted
// text generator for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ankigen/internal/models"
)

// Call is one request received by the fake bridge.
type Call struct {
	Action string
	Params json.RawMessage
}

type fakeNote struct {
	id     int64
	deck   string
	model  string
	fields map[string]string
	order  []string
	tags   []string
	hidden bool
}

// FakeBridge is an httptest server speaking the AnkiConnect protocol
// against an in-memory collection.
type FakeBridge struct {
	*httptest.Server

	mu        sync.Mutex
	version   int
	decks     []string
	notes     map[int64]*fakeNote
	order     []int64
	nextID    int64
	appErrors map[string]string
	statuses  map[string]int
	malformed map[string]bool
	noteFails map[int64]string
	calls     []Call
}

// NewFakeBridge starts a fake bridge with the given decks (default "Default").
// The server is closed when the test ends.
func NewFakeBridge(t *testing.T, decks ...string) *FakeBridge {
	t.Helper()
	if len(decks) == 0 {
		decks = []string{"Default"}
	}
	fb := &FakeBridge{
		version:   6,
		decks:     decks,
		notes:     make(map[int64]*fakeNote),
		nextID:    1_000,
		appErrors: make(map[string]string),
		statuses:  make(map[string]int),
		malformed: make(map[string]bool),
		noteFails: make(map[int64]string),
	}
	r := chi.NewRouter()
	r.Post("/", fb.handle)
	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Close)
	return fb
}

// SetVersion changes the protocol version the bridge reports.
func (fb *FakeBridge) SetVersion(v int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.version = v
}

// AddNote seeds a note. order lists field names in schema order; fields
// missing from order are appended.
func (fb *FakeBridge) AddNote(deck, model string, fields map[string]string, order []string, tags ...string) int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.insert(deck, model, fields, order, tags)
}

// schemas gives field order for notes created without an explicit order.
var schemas = map[string][]string{
	models.ModelBasic:       {"Front", "Back"},
	models.ModelRandomBasic: {"Front", "Back"},
	models.ModelCloze:       {"Text", "Extra"},
}

func (fb *FakeBridge) insert(deck, model string, fields map[string]string, order []string, tags []string) int64 {
	if len(order) == 0 {
		order = schemas[model]
	}
	fb.nextID++
	n := &fakeNote{
		id:     fb.nextID,
		deck:   deck,
		model:  model,
		fields: copyFields(fields),
		order:  slices.Clone(order),
		tags:   slices.Clone(tags),
	}
	n.order = appendMissing(n.order, fields)
	if n.tags == nil {
		n.tags = []string{}
	}
	fb.notes[n.id] = n
	fb.order = append(fb.order, n.id)
	return n.id
}

// Note returns a snapshot of a stored note.
func (fb *FakeBridge) Note(id int64) (models.Note, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n, ok := fb.notes[id]
	if !ok {
		return models.Note{}, false
	}
	return n.snapshot(), true
}

// Notes returns snapshots of every stored note in insertion order.
func (fb *FakeBridge) Notes() []models.Note {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]models.Note, 0, len(fb.order))
	for _, id := range fb.order {
		out = append(out, fb.notes[id].snapshot())
	}
	return out
}

// FailAction makes action answer with an application error.
func (fb *FakeBridge) FailAction(action, msg string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.appErrors[action] = msg
}

// BreakAction makes action answer with an HTTP error status.
func (fb *FakeBridge) BreakAction(action string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.statuses[action] = status
}

// MalformAction makes action answer without the envelope fields.
func (fb *FakeBridge) MalformAction(action string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.malformed[action] = true
}

// FailNoteUpdate makes updates of a single note fail with msg.
func (fb *FakeBridge) FailNoteUpdate(id int64, msg string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.noteFails[id] = msg
}

// HideNote keeps id in query results but answers notesInfo with an empty entry.
func (fb *FakeBridge) HideNote(id int64) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if n, ok := fb.notes[id]; ok {
		n.hidden = true
	}
}

// Calls returns the journal of received requests, optionally filtered by action.
func (fb *FakeBridge) Calls(action string) []Call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []Call
	for _, c := range fb.calls {
		if action == "" || c.Action == action {
			out = append(out, c)
		}
	}
	return out
}

type envelope struct {
	Result any     `json:"result"`
	Error  *string `json:"error"`
}

func (fb *FakeBridge) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string          `json:"action"`
		Version int             `json:"version"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.calls = append(fb.calls, Call{Action: req.Action, Params: req.Params})

	if status, ok := fb.statuses[req.Action]; ok {
		http.Error(w, "broken", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if fb.malformed[req.Action] {
		_, _ = w.Write([]byte(`{"unexpected": true}`))
		return
	}
	if msg, ok := fb.appErrors[req.Action]; ok {
		_ = json.NewEncoder(w).Encode(envelope{Error: &msg})
		return
	}

	result, errMsg := fb.dispatch(req.Action, req.Params)
	env := envelope{Result: result}
	if errMsg != "" {
		env = envelope{Error: &errMsg}
	}
	_ = json.NewEncoder(w).Encode(env)
}

func (fb *FakeBridge) dispatch(action string, params json.RawMessage) (any, string) {
	switch action {
	case "version":
		return fb.version, ""
	case "deckNames":
		return slices.Clone(fb.decks), ""
	case "findNotes":
		var p struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(params, &p)
		return fb.find(p.Query), ""
	case "notesInfo":
		var p struct {
			Notes []int64 `json:"notes"`
		}
		_ = json.Unmarshal(params, &p)
		out := make([]any, 0, len(p.Notes))
		for _, id := range p.Notes {
			n, ok := fb.notes[id]
			if !ok || n.hidden {
				out = append(out, map[string]any{})
				continue
			}
			out = append(out, n.info())
		}
		return out, ""
	case "addNote":
		var p struct {
			Note struct {
				DeckName  string            `json:"deckName"`
				ModelName string            `json:"modelName"`
				Fields    map[string]string `json:"fields"`
				Tags      []string          `json:"tags"`
			} `json:"note"`
		}
		_ = json.Unmarshal(params, &p)
		if !slices.Contains(fb.decks, p.Note.DeckName) {
			return nil, "deck was not found: " + p.Note.DeckName
		}
		if fb.duplicate(p.Note.DeckName, p.Note.ModelName, p.Note.Fields) {
			return nil, "cannot create note because it is a duplicate"
		}
		return fb.insert(p.Note.DeckName, p.Note.ModelName, p.Note.Fields, nil, p.Note.Tags), ""
	case "updateNoteFields":
		var p struct {
			Note struct {
				ID     int64             `json:"id"`
				Fields map[string]string `json:"fields"`
			} `json:"note"`
		}
		_ = json.Unmarshal(params, &p)
		n, msg := fb.updatable(p.Note.ID)
		if msg != "" {
			return nil, msg
		}
		for k, v := range p.Note.Fields {
			n.fields[k] = v
		}
		return nil, ""
	case "updateNoteModel":
		var p struct {
			Note struct {
				ID        int64             `json:"id"`
				ModelName string            `json:"modelName"`
				Fields    map[string]string `json:"fields"`
				Tags      *[]string         `json:"tags"`
			} `json:"note"`
		}
		_ = json.Unmarshal(params, &p)
		n, msg := fb.updatable(p.Note.ID)
		if msg != "" {
			return nil, msg
		}
		n.model = p.Note.ModelName
		n.fields = copyFields(p.Note.Fields)
		n.order = appendMissing(n.order, n.fields)
		if p.Note.Tags != nil {
			n.tags = slices.Clone(*p.Note.Tags)
		}
		return nil, ""
	}
	return nil, "unsupported action"
}

func (fb *FakeBridge) updatable(id int64) (*fakeNote, string) {
	if msg, ok := fb.noteFails[id]; ok {
		return nil, msg
	}
	n, ok := fb.notes[id]
	if !ok {
		return nil, "note was not found: " + jsonString(id)
	}
	return n, ""
}

// find understands "tag:<t>", "deck:<d>" and "note:<model>" terms joined by
// spaces; anything else matches every note.
func (fb *FakeBridge) find(query string) []int64 {
	ids := []int64{}
	for _, id := range fb.order {
		n := fb.notes[id]
		if n.matches(query) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (fb *FakeBridge) duplicate(deck, model string, fields map[string]string) bool {
	for _, id := range fb.order {
		n := fb.notes[id]
		if n.deck != deck || n.model != model || len(n.order) == 0 {
			continue
		}
		first := n.order[0]
		if n.fields[first] == fields[first] {
			return true
		}
	}
	return false
}

func (n *fakeNote) matches(query string) bool {
	for _, term := range strings.Fields(query) {
		key, val, ok := strings.Cut(term, ":")
		if !ok {
			continue
		}
		switch key {
		case "tag":
			if !slices.Contains(n.tags, val) {
				return false
			}
		case "deck":
			if n.deck != val {
				return false
			}
		case "note":
			if n.model != val {
				return false
			}
		}
	}
	return true
}

func (n *fakeNote) info() map[string]any {
	fields := make(map[string]any, len(n.fields))
	for i, name := range n.order {
		if v, ok := n.fields[name]; ok {
			fields[name] = map[string]any{"value": v, "order": i}
		}
	}
	return map[string]any{
		"noteId":    n.id,
		"modelName": n.model,
		"tags":      n.tags,
		"fields":    fields,
	}
}

func (n *fakeNote) snapshot() models.Note {
	var order []string
	for _, name := range n.order {
		if _, ok := n.fields[name]; ok {
			order = append(order, name)
		}
	}
	return models.Note{
		ID:         n.id,
		ModelName:  n.model,
		Fields:     copyFields(n.fields),
		FieldOrder: order,
		Tags:       slices.Clone(n.tags),
	}
}

func appendMissing(order []string, fields map[string]string) []string {
	var extra []string
	for name := range fields {
		if !slices.Contains(order, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func jsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
