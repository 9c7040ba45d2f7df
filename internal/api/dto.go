package api

import (
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/transform"
)

// StatusResponse reports bridge and text service availability.
type StatusResponse struct {
	BridgeVersion int  `json:"bridge_version" example:"6" validate:"required"`
	AIEnabled     bool `json:"ai_enabled" example:"true"`
}

// DeckListResponse wraps the deck names.
type DeckListResponse struct {
	Decks []string `json:"decks" validate:"required"`
}

// NoteListResponse wraps the notes matching a query.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// ArithmeticRequest is the request body for arithmetic generation.
type ArithmeticRequest = noteservice.ArithmeticRequest

// SpellingRequest is the request body for spelling generation. Text, when
// set, is parsed as a word list and replaces Words.
type SpellingRequest struct {
	noteservice.SpellingRequest
	Text string `json:"text,omitempty" example:"planet\nharbour"`
}

// PoetryRequest is the request body for poetry generation. Text, when set,
// is parsed as a poem file and replaces Poem.
type PoetryRequest struct {
	noteservice.PoetryRequest
	Text string `json:"text,omitempty" example:"Title\nAuthor\nFirst line"`
}

// SequenceRequest is the request body for sequence generation. Text, when
// set, is parsed as a sequence file and replaces Sequence.
type SequenceRequest struct {
	noteservice.SequenceRequest
	Text string `json:"text,omitempty" example:"Planets\nMercury\nVenus"`
}

// GenerationResponse is returned by every generator.
type GenerationResponse = noteservice.Generation

// TransformRequest is the request body for the random-basic transformation.
type TransformRequest = transform.Options

// TransformResponse reports the transformation run.
type TransformResponse struct {
	RunID  string            `json:"run_id" validate:"required"`
	Result *transform.Result `json:"result" validate:"required"`
}
