package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/testutil"
)

func newBridge(t *testing.T) (*storage.Bridge, *testutil.FakeBridge) {
	t.Helper()
	fb := testutil.NewFakeBridge(t, "Default", "Maths")
	return storage.NewBridge(fb.URL, storage.DefaultVersion), fb
}

func TestNewBridge_Defaults(t *testing.T) {
	b := storage.NewBridge("", 0)
	assert.Equal(t, storage.DefaultURL, b.URL())
}

func TestVersionAndDeckNames(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()

	v, err := b.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	decks, err := b.DeckNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Maths"}, decks)
}

func TestRequestEnvelope(t *testing.T) {
	b, fb := newBridge(t)
	_, err := b.FindNotes(context.Background(), "deck:Maths tag:x")
	require.NoError(t, err)

	calls := fb.Calls("findNotes")
	require.Len(t, calls, 1)
	var params map[string]string
	require.NoError(t, json.Unmarshal(calls[0].Params, &params))
	assert.Equal(t, "deck:Maths tag:x", params["query"])
}

func TestFindNotesAndNotesInfo(t *testing.T) {
	b, fb := newBridge(t)
	ctx := context.Background()
	id1 := fb.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Q1", "Back": "A1"}, []string{"Front", "Back"}, "t1")
	id2 := fb.AddNote("Default", models.ModelCloze, map[string]string{"Text": "{{c1::x}}", "Extra": ""}, []string{"Text", "Extra"})

	ids, err := b.FindNotes(ctx, "deck:Default")
	require.NoError(t, err)
	assert.Equal(t, []int64{id1, id2}, ids)

	notes, err := b.NotesInfo(ctx, ids)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, id1, notes[0].ID)
	assert.Equal(t, models.ModelBasic, notes[0].ModelName)
	assert.Equal(t, map[string]string{"Front": "Q1", "Back": "A1"}, notes[0].Fields)
	assert.Equal(t, []string{"Front", "Back"}, notes[0].FieldOrder)
	assert.Equal(t, []string{"t1"}, notes[0].Tags)
	assert.Equal(t, []string{}, notes[1].Tags)
}

func TestNotesInfo_EmptyIDsMakesNoRequest(t *testing.T) {
	b, fb := newBridge(t)
	notes, err := b.NotesInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, fb.Calls("notesInfo"))
}

func TestNotesInfo_UnknownIDIsEmpty(t *testing.T) {
	b, _ := newBridge(t)
	notes, err := b.NotesInfo(context.Background(), []int64{42})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Empty())
}

func TestAddNote(t *testing.T) {
	b, fb := newBridge(t)
	ctx := context.Background()

	id, err := b.AddNote(ctx, "Maths", models.ModelBasic, map[string]string{"Front": "2+2", "Back": "4"}, []string{"run", "addition"})
	require.NoError(t, err)
	stored, ok := fb.Note(id)
	require.True(t, ok)
	assert.Equal(t, []string{"run", "addition"}, stored.Tags)

	var params struct {
		Note struct {
			Options struct {
				AllowDuplicate bool   `json:"allowDuplicate"`
				DuplicateScope string `json:"duplicateScope"`
			} `json:"options"`
		} `json:"note"`
	}
	require.NoError(t, json.Unmarshal(fb.Calls("addNote")[0].Params, &params))
	assert.False(t, params.Note.Options.AllowDuplicate)
	assert.Equal(t, "deck", params.Note.Options.DuplicateScope)
}

func TestAddNote_Duplicate(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()
	fields := map[string]string{"Front": "2+2", "Back": "4"}

	_, err := b.AddNote(ctx, "Maths", models.ModelBasic, fields, nil)
	require.NoError(t, err)
	_, err = b.AddNote(ctx, "Maths", models.ModelBasic, fields, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.ErrorIs(t, err, apperr.ErrBridge)
	assert.NotErrorIs(t, err, apperr.ErrTransport)
}

func TestAddNote_UnknownDeck(t *testing.T) {
	b, _ := newBridge(t)
	_, err := b.AddNote(context.Background(), "Nope", models.ModelBasic, map[string]string{"Front": "x"}, nil)
	var be *apperr.BridgeError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "addNote", be.Action)
	assert.NotErrorIs(t, err, apperr.ErrDuplicate)
}

func TestUpdateNoteModel_ReplacesModelFieldsAndTags(t *testing.T) {
	b, fb := newBridge(t)
	id := fb.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Q", "Back": "A"}, []string{"Front", "Back"}, "keep", "me")

	err := b.UpdateNoteModel(context.Background(), id, models.ModelRandomBasic,
		map[string]string{"Front": "Q | Q2", "Back": "A"}, []string{"keep", "me"})
	require.NoError(t, err)

	n, _ := fb.Note(id)
	assert.Equal(t, models.ModelRandomBasic, n.ModelName)
	assert.Equal(t, "Q | Q2", n.Fields["Front"])
	assert.Equal(t, []string{"keep", "me"}, n.Tags)
}

func TestUpdateNoteFields(t *testing.T) {
	b, fb := newBridge(t)
	id := fb.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Q", "Back": "A"}, nil)

	require.NoError(t, b.UpdateNoteFields(context.Background(), id, map[string]string{"Back": "B"}))
	n, _ := fb.Note(id)
	assert.Equal(t, "Q", n.Fields["Front"])
	assert.Equal(t, "B", n.Fields["Back"])
}

func TestTransportErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(fb *testutil.FakeBridge)
	}{
		{"http status", func(fb *testutil.FakeBridge) { fb.BreakAction("findNotes", http.StatusInternalServerError) }},
		{"missing envelope fields", func(fb *testutil.FakeBridge) { fb.MalformAction("findNotes") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, fb := newBridge(t)
			tt.setup(fb)
			_, err := b.FindNotes(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrTransport)
		})
	}
}

func TestTransportError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := storage.NewBridge(url, 6).Version(context.Background())
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestTransportError_NotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := storage.NewBridge(srv.URL, 6).DeckNames(context.Background())
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestApplicationError(t *testing.T) {
	b, fb := newBridge(t)
	fb.FailAction("deckNames", "collection is not available")

	_, err := b.DeckNames(context.Background())
	var be *apperr.BridgeError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "collection is not available", be.Message)
	assert.NotErrorIs(t, err, apperr.ErrTransport)
}
