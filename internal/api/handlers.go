// Package api provides the REST handlers over the note service.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/parser"
	"github.com/starford/ankigen/internal/sse"
	"github.com/starford/ankigen/internal/transform"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc    *noteservice.Service
	broker *sse.Broker
}

// NewHandler creates a Handler. broker may be nil.
func NewHandler(svc *noteservice.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// Status handles GET /api/status.
//
//	@Summary		Check the bridge connection
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Failure		502	{object}	errResponse
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Ping(r.Context())
	if err != nil {
		writeError(w, "ping", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{BridgeVersion: v, AIEnabled: h.svc.AIEnabled()})
}

// ListDecks handles GET /api/decks.
//
//	@Summary		List deck names
//	@Tags			decks
//	@Produce		json
//	@Success		200	{object}	DeckListResponse
//	@Failure		502	{object}	errResponse
//	@Router			/decks [get]
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.svc.DeckNames(r.Context())
	if err != nil {
		writeError(w, "list decks", err)
		return
	}
	if decks == nil {
		decks = []string{}
	}
	writeJSON(w, http.StatusOK, DeckListResponse{Decks: decks})
}

// FindNotes handles GET /api/notes.
//
//	@Summary		Find notes with a store query
//	@Tags			notes
//	@Produce		json
//	@Param			q		query		string	true	"Store query, e.g. deck:Default"
//	@Param			limit	query		int		false	"Max notes (default 50)"
//	@Success		200		{object}	NoteListResponse
//	@Failure		400		{object}	errResponse
//	@Router			/notes [get]
func (h *Handler) FindNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	notes, total, err := h.svc.FindNotes(r.Context(), q, limit)
	if err != nil {
		writeError(w, "find notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// GenerateArithmetic handles POST /api/generate/arithmetic.
//
//	@Summary		Generate arithmetic drill cards
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ArithmeticRequest	true	"Operands and operation"
//	@Success		200		{object}	GenerationResponse
//	@Failure		400		{object}	errResponse
//	@Router			/generate/arithmetic [post]
func (h *Handler) GenerateArithmetic(w http.ResponseWriter, r *http.Request) {
	var req ArithmeticRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.generation(w, r, "arithmetic", func(ctx context.Context) (*noteservice.Generation, error) {
		return h.svc.GenerateArithmetic(ctx, req)
	})
}

// GenerateSpelling handles POST /api/generate/spelling.
//
//	@Summary		Generate syllable cloze cards
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SpellingRequest	true	"Words or a word list"
//	@Success		200		{object}	GenerationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/generate/spelling [post]
func (h *Handler) GenerateSpelling(w http.ResponseWriter, r *http.Request) {
	var req SpellingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text != "" {
		words, err := parser.ParseWords(strings.NewReader(req.Text))
		if err != nil {
			writeError(w, "parse words", err)
			return
		}
		req.Words = words
	}
	h.generation(w, r, "spelling", func(ctx context.Context) (*noteservice.Generation, error) {
		return h.svc.GenerateSpelling(ctx, req.SpellingRequest)
	})
}

// GeneratePoetry handles POST /api/generate/poetry.
//
//	@Summary		Generate line-by-line poem cards
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PoetryRequest	true	"Poem or poem text"
//	@Success		200		{object}	GenerationResponse
//	@Failure		400		{object}	errResponse
//	@Router			/generate/poetry [post]
func (h *Handler) GeneratePoetry(w http.ResponseWriter, r *http.Request) {
	var req PoetryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text != "" {
		p, err := parser.ParsePoem([]byte(req.Text))
		if err != nil {
			writeError(w, "parse poem", err)
			return
		}
		req.Poem = p
	}
	h.generation(w, r, "poetry", func(ctx context.Context) (*noteservice.Generation, error) {
		return h.svc.GeneratePoetry(ctx, req.PoetryRequest)
	})
}

// GenerateSequence handles POST /api/generate/sequence.
//
//	@Summary		Generate ordered-sequence cards
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SequenceRequest	true	"Sequence or sequence text"
//	@Success		200		{object}	GenerationResponse
//	@Failure		400		{object}	errResponse
//	@Router			/generate/sequence [post]
func (h *Handler) GenerateSequence(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text != "" {
		s, err := parser.ParseSequence([]byte(req.Text))
		if err != nil {
			writeError(w, "parse sequence", err)
			return
		}
		req.Sequence = s
	}
	h.generation(w, r, "sequence", func(ctx context.Context) (*noteservice.Generation, error) {
		return h.svc.GenerateSequence(ctx, req.SequenceRequest)
	})
}

func (h *Handler) generation(w http.ResponseWriter, r *http.Request, kind string, fn func(context.Context) (*noteservice.Generation, error)) {
	g, err := fn(r.Context())
	if err != nil {
		writeError(w, "generate "+kind, err)
		return
	}
	if h.broker != nil {
		runID := g.Summary.RunID
		if runID == "" {
			runID = uuid.NewString()
		}
		h.broker.RunFinished(runID, kind, g.Summary)
	}
	writeJSON(w, http.StatusOK, g)
}

// TransformRandomBasic handles POST /api/transform/random-basic.
//
//	@Summary		Rephrase matching notes and convert them to RandomBasic
//	@Tags			transform
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TransformRequest	true	"Query, field and variation count"
//	@Success		200		{object}	TransformResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Router			/transform/random-basic [post]
func (h *Handler) TransformRandomBasic(w http.ResponseWriter, r *http.Request) {
	var opts TransformRequest
	if !decodeJSON(w, r, &opts) {
		return
	}
	runID := uuid.NewString()

	// Runs the service would reject publish no events.
	publish := h.broker != nil && h.svc.AIEnabled() && opts.Check() == nil
	var report transform.Reporter
	if publish {
		h.broker.RunStarted(runID, "random-basic", opts)
		report = func(nr transform.NoteReport) { h.broker.NoteProcessed(runID, nr) }
	}
	res, err := h.svc.TransformRandomBasic(r.Context(), opts, report)
	if err != nil {
		if publish {
			h.broker.RunFinished(runID, "random-basic", errorBody(err.Error()))
		}
		writeError(w, "transform", err)
		return
	}
	if publish {
		h.broker.RunFinished(runID, "random-basic", res)
	}
	writeJSON(w, http.StatusOK, TransformResponse{RunID: runID, Result: res})
}
