// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes ankigen tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/parser"
	"github.com/starford/ankigen/internal/transform"
)

const inputFormatsURI = "ankigen://input-formats"

// Server wraps the MCP server with ankigen tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all ankigen tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"ankigen",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("check_connection",
		mcp.WithDescription("Check that Anki is reachable through AnkiConnect and report the protocol version."),
	), s.checkConnection)

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("List the names of all Anki decks."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("find_notes",
		mcp.WithDescription("Find notes with an Anki search query and return their model, fields and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Anki search query, e.g. deck:Geography tag:capitals")),
		mcp.WithNumber("limit", mcp.Description("Maximum notes to return (default 20)")),
	), s.findNotes)

	s.mcp.AddTool(mcp.NewTool("generate_arithmetic",
		mcp.WithDescription("Create mental-arithmetic cards for every ordered pair of operands."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Target deck")),
		mcp.WithArray("operands", mcp.Required(), mcp.Description("Integer operands"), mcp.Items(map[string]any{"type": "integer"})),
		mcp.WithString("operation", mcp.Description("addition, multiplication or all (default all)")),
		mcp.WithBoolean("dry_run", mcp.Description("Build the cards without writing them")),
	), s.generateArithmetic)

	s.mcp.AddTool(mcp.NewTool("generate_spelling",
		mcp.WithDescription("Create syllable cloze cards for a list of words. "+
			"Hints come from the text service unless no_descriptions is set."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Target deck")),
		mcp.WithArray("words", mcp.Required(), mcp.Description("Words to spell"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("no_descriptions", mcp.Description("Skip AI hints")),
		mcp.WithBoolean("disable_run_tag", mcp.Description("Do not tag the cards with the run id")),
		mcp.WithBoolean("dry_run", mcp.Description("Build the cards without writing them")),
	), s.generateSpelling)

	s.mcp.AddTool(mcp.NewTool("generate_poetry",
		mcp.WithDescription("Create line-by-line recall cards for a poem. "+
			"Read the input format first via get_input_formats or the "+inputFormatsURI+" resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Target deck")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Poem text: title, author, then the lines")),
		mcp.WithBoolean("disable_run_tag", mcp.Description("Do not tag the cards with the run id")),
		mcp.WithBoolean("dry_run", mcp.Description("Build the cards without writing them")),
	), s.generatePoetry)

	s.mcp.AddTool(mcp.NewTool("generate_sequence",
		mcp.WithDescription("Create recall cards for an ordered sequence. "+
			"Read the input format first via get_input_formats or the "+inputFormatsURI+" resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Target deck")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Sequence text: title, then one element per line")),
		mcp.WithBoolean("disable_run_tag", mcp.Description("Do not tag the cards with the run id")),
		mcp.WithBoolean("dry_run", mcp.Description("Build the cards without writing them")),
	), s.generateSequence)

	s.mcp.AddTool(mcp.NewTool("transform_random_basic",
		mcp.WithDescription("Rephrase a field of matching Basic notes with the text service and convert them "+
			"to the RandomBasic model. Use dry_run first to preview."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Anki search query selecting the notes")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field to rephrase, e.g. Front")),
		mcp.WithNumber("variations", mcp.Description("Rephrasings per note (default 2)")),
		mcp.WithNumber("max_notes", mcp.Description("Process at most this many notes (0 = all)")),
		mcp.WithBoolean("dry_run", mcp.Description("Compute the new values without updating notes")),
	), s.transformRandomBasic)

	s.mcp.AddTool(mcp.NewTool("get_input_formats",
		mcp.WithDescription("Returns the text formats accepted by the generator tools."),
	), s.getInputFormats)

	s.mcp.AddResource(
		mcp.NewResource(inputFormatsURI, "Input Formats",
			mcp.WithResourceDescription("Text formats accepted by the poetry, sequence and spelling generators."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readInputFormatsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkConnection(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.Ping(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"version": v, "ai_enabled": s.svc.AIEnabled()})
}

func (s *Server) listDecks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decks, err := s.svc.DeckNames(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(decks, "\n")), nil
}

func (s *Server) findNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, total, err := s.svc.FindNotes(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"total": total, "notes": notes})
}

func (s *Server) generateArithmetic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	operands, err := req.RequireIntSlice("operands")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op, err := parser.ParseOperation(req.GetString("operation", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.svc.GenerateArithmetic(ctx, noteservice.ArithmeticRequest{
		Deck:      deck,
		Operands:  operands,
		Operation: op,
		DryRun:    req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(g.Summary)
}

func (s *Server) generateSpelling(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	words, err := req.RequireStringSlice("words")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.svc.GenerateSpelling(ctx, noteservice.SpellingRequest{
		Deck:           deck,
		Words:          words,
		NoDescriptions: req.GetBool("no_descriptions", false),
		DisableRunTag:  req.GetBool("disable_run_tag", false),
		DryRun:         req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"summary": g.Summary, "undescribed": g.Undescribed})
}

func (s *Server) generatePoetry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	poem, err := parser.ParsePoem([]byte(text))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.svc.GeneratePoetry(ctx, noteservice.PoetryRequest{
		Deck:          deck,
		Poem:          poem,
		DisableRunTag: req.GetBool("disable_run_tag", false),
		DryRun:        req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(g.Summary)
}

func (s *Server) generateSequence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seq, err := parser.ParseSequence([]byte(text))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.svc.GenerateSequence(ctx, noteservice.SequenceRequest{
		Deck:          deck,
		Sequence:      seq,
		DisableRunTag: req.GetBool("disable_run_tag", false),
		DryRun:        req.GetBool("dry_run", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(g.Summary)
}

func (s *Server) transformRandomBasic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.TransformRandomBasic(ctx, transform.Options{
		Query:      query,
		Field:      field,
		Variations: req.GetInt("variations", transform.DefaultVariations),
		MaxNotes:   req.GetInt("max_notes", 0),
		DryRun:     req.GetBool("dry_run", false),
	}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getInputFormats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(InputFormats), nil
}

func (s *Server) readInputFormatsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      inputFormatsURI,
			MIMEType: "text/markdown",
			Text:     InputFormats,
		},
	}, nil
}
