package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/testutil"
)

func testServer(t *testing.T, opts ...noteservice.Option) (*Server, *testutil.FakeBridge) {
	t.Helper()
	fb := testutil.NewFakeBridge(t, "Default", "Math")
	svc := noteservice.NewService(storage.NewBridge(fb.URL, 0), opts...)
	return New(svc, "test"), fb
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "check_connection":
		result, err = srv.checkConnection(ctx, req)
	case "list_decks":
		result, err = srv.listDecks(ctx, req)
	case "find_notes":
		result, err = srv.findNotes(ctx, req)
	case "generate_arithmetic":
		result, err = srv.generateArithmetic(ctx, req)
	case "generate_spelling":
		result, err = srv.generateSpelling(ctx, req)
	case "generate_poetry":
		result, err = srv.generatePoetry(ctx, req)
	case "generate_sequence":
		result, err = srv.generateSequence(ctx, req)
	case "transform_random_basic":
		result, err = srv.transformRandomBasic(ctx, req)
	case "get_input_formats":
		result, err = srv.getInputFormats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCheckConnection(t *testing.T) {
	srv, fb := testServer(t)
	r := callTool(t, srv, "check_connection", nil)
	if r.IsError || !strings.Contains(resultText(r), `"version": 6`) {
		t.Errorf("check = %q", resultText(r))
	}

	fb.SetVersion(4)
	r = callTool(t, srv, "check_connection", nil)
	if !r.IsError {
		t.Error("expected error on version mismatch")
	}
}

func TestListDecks(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_decks", nil)
	if text := resultText(r); text != "Default\nMath" {
		t.Errorf("decks = %q", text)
	}
}

func TestFindNotes(t *testing.T) {
	srv, fb := testServer(t)
	fb.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Q", "Back": "A"}, nil, "geo")

	r := callTool(t, srv, "find_notes", map[string]any{"query": "tag:geo"})
	if r.IsError {
		t.Fatalf("find_notes: %s", resultText(r))
	}
	var out struct {
		Total int           `json:"total"`
		Notes []models.Note `json:"notes"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Notes[0].Fields["Front"] != "Q" {
		t.Errorf("out = %+v", out)
	}

	r = callTool(t, srv, "find_notes", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing query")
	}
}

func TestGenerateArithmetic(t *testing.T) {
	srv, fb := testServer(t)
	r := callTool(t, srv, "generate_arithmetic", map[string]any{
		"deck":      "Math",
		"operands":  []any{float64(2), float64(3)},
		"operation": "multiplication",
	})
	if r.IsError {
		t.Fatalf("generate_arithmetic: %s", resultText(r))
	}
	if n := len(fb.Notes()); n != 4 {
		t.Errorf("store has %d notes, want 4", n)
	}

	r = callTool(t, srv, "generate_arithmetic", map[string]any{
		"deck":      "Math",
		"operands":  []any{float64(2)},
		"operation": "division",
	})
	if !r.IsError {
		t.Error("expected error for unknown operation")
	}
}

func TestGenerateSpelling_RequiresAIUnlessNoDescriptions(t *testing.T) {
	srv, fb := testServer(t)
	r := callTool(t, srv, "generate_spelling", map[string]any{"deck": "Default", "words": []any{"planet"}})
	if !r.IsError {
		t.Fatal("expected configuration error without a text service")
	}

	r = callTool(t, srv, "generate_spelling", map[string]any{
		"deck":            "Default",
		"words":           []any{"planet"},
		"no_descriptions": true,
	})
	if r.IsError {
		t.Fatalf("generate_spelling: %s", resultText(r))
	}
	if n := len(fb.Notes()); n != 1 {
		t.Errorf("store has %d notes, want 1", n)
	}
}

func TestGeneratePoetry(t *testing.T) {
	srv, fb := testServer(t)
	r := callTool(t, srv, "generate_poetry", map[string]any{
		"deck": "Default",
		"text": "Fog\nCarl Sandburg\nThe fog comes\non little cat feet.\n",
	})
	if r.IsError {
		t.Fatalf("generate_poetry: %s", resultText(r))
	}
	if n := len(fb.Notes()); n != 2 {
		t.Errorf("store has %d notes, want 2", n)
	}

	r = callTool(t, srv, "generate_poetry", map[string]any{"deck": "Default", "text": "Fog"})
	if !r.IsError {
		t.Error("expected error for malformed poem")
	}
}

func TestGenerateSequence_DryRun(t *testing.T) {
	srv, fb := testServer(t)
	r := callTool(t, srv, "generate_sequence", map[string]any{
		"deck":    "Default",
		"text":    "Colours\nred\ngreen\nblue\n",
		"dry_run": true,
	})
	if r.IsError {
		t.Fatalf("generate_sequence: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"dry_run": true`) {
		t.Errorf("summary = %s", resultText(r))
	}
	if len(fb.Calls("addNote")) != 0 {
		t.Error("dry run must not write")
	}
}

func TestTransformRandomBasic(t *testing.T) {
	srv, fb := testServer(t, noteservice.WithGenerator(&testutil.StubGenerator{}))
	id := fb.AddNote("Default", models.ModelBasic, map[string]string{"Front": "Capital of Peru?", "Back": "Lima"}, nil)

	r := callTool(t, srv, "transform_random_basic", map[string]any{
		"query":      "deck:Default",
		"field":      "Front",
		"variations": float64(1),
	})
	if r.IsError {
		t.Fatalf("transform: %s", resultText(r))
	}
	n, _ := fb.Note(id)
	if n.ModelName != models.ModelRandomBasic {
		t.Errorf("model = %q", n.ModelName)
	}
	if got := strings.Count(n.Fields["Front"], models.Marker); got != 1 {
		t.Errorf("front = %q, want one variant", n.Fields["Front"])
	}
}

func TestTransformRandomBasic_WithoutAI(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "transform_random_basic", map[string]any{"query": "deck:Default", "field": "Front"})
	if !r.IsError {
		t.Error("expected configuration error without a text service")
	}
}

func TestInputFormats(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_input_formats", nil)
	if !strings.Contains(resultText(r), "## Poem") {
		t.Error("input formats missing poem section")
	}

	contents, err := srv.readInputFormatsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != inputFormatsURI || tc.Text != InputFormats {
		t.Errorf("resource = %+v", contents[0])
	}
}
