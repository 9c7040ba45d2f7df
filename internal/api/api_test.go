package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/sse"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/testutil"
	"github.com/starford/ankigen/internal/transform"
)

type testEnv struct {
	bridge *testutil.FakeBridge
	gen    *testutil.StubGenerator
	broker *sse.Broker
	router http.Handler
}

// newTestEnv wires a router over a fake bridge. withAI enables the stub
// text generator.
func newTestEnv(t *testing.T, withAI bool) *testEnv {
	t.Helper()
	fb := testutil.NewFakeBridge(t, "Default", "Math")
	env := &testEnv{bridge: fb, broker: sse.NewBroker(time.Millisecond)}
	t.Cleanup(env.broker.Close)

	var opts []noteservice.Option
	if withAI {
		env.gen = &testutil.StubGenerator{Descriptions: map[string]string{"planet": "A body orbiting a star"}}
		opts = append(opts, noteservice.WithGenerator(env.gen))
	}
	svc := noteservice.NewService(storage.NewBridge(fb.URL, 0), opts...)
	env.router = NewRouter(svc, env.broker)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[StatusResponse](t, w)
	if resp.BridgeVersion != 6 || resp.AIEnabled {
		t.Errorf("resp = %+v", resp)
	}
}

func TestStatus_VersionMismatch(t *testing.T) {
	env := newTestEnv(t, false)
	env.bridge.SetVersion(5)
	w := env.do(t, http.MethodGet, "/status", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestListDecks(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/decks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[DeckListResponse](t, w)
	if len(resp.Decks) != 2 || resp.Decks[0] != "Default" || resp.Decks[1] != "Math" {
		t.Errorf("decks = %v", resp.Decks)
	}
}

func TestListDecks_BridgeDown(t *testing.T) {
	env := newTestEnv(t, false)
	env.bridge.BreakAction("deckNames", http.StatusInternalServerError)
	w := env.do(t, http.MethodGet, "/decks", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestFindNotes(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing q: status = %d, want 400", w.Code)
	}

	env.bridge.AddNote("Default", models.ModelBasic, map[string]string{"Front": "a", "Back": "1"}, nil)
	env.bridge.AddNote("Default", models.ModelBasic, map[string]string{"Front": "b", "Back": "2"}, nil)
	w = env.do(t, http.MethodGet, "/notes?q=deck:Default&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[NoteListResponse](t, w)
	if resp.Total != 2 || len(resp.Notes) != 1 || resp.Notes[0].Fields["Front"] != "a" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerateArithmetic(t *testing.T) {
	env := newTestEnv(t, false)
	ch := env.broker.Subscribe()
	defer env.broker.Unsubscribe(ch)

	w := env.do(t, http.MethodPost, "/generate/arithmetic", map[string]any{
		"deck":      "Math",
		"operands":  []int{2, 3},
		"operation": "addition",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GenerationResponse](t, w)
	if g.Summary.Generated != 4 || g.Summary.Created != 4 {
		t.Errorf("summary = %+v", g.Summary)
	}
	if g.Summary.RunID == "" {
		t.Error("arithmetic runs are always tagged")
	}
	if n := len(env.bridge.Notes()); n != 4 {
		t.Errorf("store has %d notes, want 4", n)
	}

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: "+sse.TypeRunFinished) {
			t.Errorf("unexpected event %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for run.finished")
	}
}

func TestGenerateArithmetic_BadRequests(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/generate/arithmetic", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/generate/arithmetic", map[string]any{"operands": []int{1}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing deck: status = %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/generate/arithmetic", map[string]any{"deck": "Math", "operands": []int{1}, "operation": "division"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown operation: status = %d", w.Code)
	}
	if len(env.bridge.Notes()) != 0 {
		t.Error("rejected requests must not write")
	}
}

func TestGenerateSpelling_RequiresAI(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/generate/spelling", map[string]any{"deck": "Default", "words": []string{"planet"}})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestGenerateSpelling_NoDescriptions(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/generate/spelling", map[string]any{
		"deck":            "Default",
		"text":            "planet\n\nharbour\n",
		"no_descriptions": true,
		"dry_run":         true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GenerationResponse](t, w)
	if g.Summary.Generated != 2 || !g.Summary.DryRun {
		t.Errorf("summary = %+v", g.Summary)
	}
	if len(env.bridge.Calls("addNote")) != 0 {
		t.Error("dry run must not write")
	}
}

func TestGenerateSpelling_WithHints(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, http.MethodPost, "/generate/spelling", map[string]any{
		"deck":  "Default",
		"words": []string{"planet", "harbour"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GenerationResponse](t, w)
	if g.Summary.Created != 2 {
		t.Errorf("summary = %+v", g.Summary)
	}
	if len(g.Undescribed) != 1 || g.Undescribed[0] != "harbour" {
		t.Errorf("undescribed = %v", g.Undescribed)
	}
	if !strings.HasPrefix(g.Cards[0].Fields["Text"], "A body orbiting a star: ") {
		t.Errorf("text = %q", g.Cards[0].Fields["Text"])
	}
}

func TestGeneratePoetry_FromText(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/generate/poetry", map[string]any{
		"deck": "Default",
		"text": "Ozymandias\nShelley\nI met a traveller\nfrom an antique land\n",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GenerationResponse](t, w)
	if g.Summary.Created == 0 || g.Summary.Created != len(g.Cards) {
		t.Errorf("summary = %+v", g.Summary)
	}
}

func TestGeneratePoetry_BadText(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/generate/poetry", map[string]any{"deck": "Default", "text": "Only a title"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Expected title, author") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGenerateSequence(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/generate/sequence", map[string]any{
		"deck":     "Default",
		"sequence": map[string]any{"title": "Colours", "elements": []string{"red", "green", "blue"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	g := decode[GenerationResponse](t, w)
	if g.Summary.Created != len(g.Cards) || len(g.Cards) == 0 {
		t.Errorf("summary = %+v", g.Summary)
	}

	w = env.do(t, http.MethodPost, "/generate/sequence", map[string]any{"deck": "Default", "sequence": map[string]any{"title": "Empty"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty sequence: status = %d", w.Code)
	}
}

func TestTransform_RequiresAI(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/transform/random-basic", map[string]any{"query": "deck:Default", "field": "Front"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestTransform_InvalidOptions(t *testing.T) {
	env := newTestEnv(t, true)
	w := env.do(t, http.MethodPost, "/transform/random-basic", map[string]any{"field": "Front"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestTransform_RejectedRunPublishesNothing(t *testing.T) {
	for name, tc := range map[string]struct {
		withAI bool
		body   map[string]any
		code   int
	}{
		"ai disabled":     {false, map[string]any{"query": "deck:Default", "field": "Front"}, http.StatusServiceUnavailable},
		"invalid options": {true, map[string]any{"field": "Front"}, http.StatusBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, tc.withAI)
			ch := env.broker.Subscribe()
			defer env.broker.Unsubscribe(ch)

			if w := env.do(t, http.MethodPost, "/transform/random-basic", tc.body); w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
			// Run events are delivered in order, so the next event must
			// belong to the arithmetic run below.
			if w := env.do(t, http.MethodPost, "/generate/arithmetic", map[string]any{
				"deck": "Math", "operands": []int{2}, "operation": "addition",
			}); w.Code != http.StatusOK {
				t.Fatalf("arithmetic status = %d", w.Code)
			}
			select {
			case msg := <-ch:
				s := string(msg)
				if !strings.HasPrefix(s, "event: "+sse.TypeRunFinished+"\n") || !strings.Contains(s, `"arithmetic"`) {
					t.Errorf("first event = %q, want the arithmetic run.finished", s)
				}
			case <-time.After(time.Second):
				t.Fatal("no event received")
			}
		})
	}
}

func TestTransform_PublishesRunEvents(t *testing.T) {
	env := newTestEnv(t, true)
	id := env.bridge.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Capital of France?", "Back": "Paris"}, nil, "geo")
	ch := env.broker.Subscribe()
	defer env.broker.Unsubscribe(ch)

	w := env.do(t, http.MethodPost, "/transform/random-basic", transform.Options{Query: "deck:Default", Field: "Front"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[TransformResponse](t, w)
	if resp.RunID == "" || resp.Result.Updated != 1 {
		t.Errorf("resp = %+v", resp)
	}

	n, _ := env.bridge.Note(id)
	if n.ModelName != models.ModelRandomBasic {
		t.Errorf("model = %q", n.ModelName)
	}

	seen := map[string]bool{}
	deadline := time.After(time.Second)
	for !seen[sse.TypeRunFinished] {
		select {
		case msg := <-ch:
			s := string(msg)
			for _, typ := range []string{sse.TypeRunStarted, sse.TypeNoteProcessed, sse.TypeRunFinished} {
				if strings.HasPrefix(s, "event: "+typ+"\n") {
					seen[typ] = true
					if !strings.Contains(s, resp.RunID) {
						t.Errorf("%s event without run id: %q", typ, s)
					}
				}
			}
		case <-deadline:
			t.Fatalf("timeout; seen = %v", seen)
		}
	}
	if !seen[sse.TypeRunStarted] || !seen[sse.TypeNoteProcessed] {
		t.Errorf("seen = %v", seen)
	}
}
