// Package noteservice is the application facade shared by the CLI, the REST
// API and the MCP server.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ankigen/internal/apperr"
	"github.com/starford/ankigen/internal/cards"
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/parser"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/textgen"
	"github.com/starford/ankigen/internal/transform"
)

// Service coordinates the store, the text generator and the card builders.
type Service struct {
	store   storage.Provider
	gen     textgen.Generator
	version int
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator enables operations that call the text service. Without it
// those operations fail with apperr.ErrConfig.
func WithGenerator(g textgen.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithBridgeVersion sets the protocol version Ping expects.
func WithBridgeVersion(v int) Option {
	return func(s *Service) { s.version = v }
}

// NewService creates a new service.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, version: storage.DefaultVersion, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AIEnabled reports whether a text generator is configured.
func (s *Service) AIEnabled() bool { return s.gen != nil }

func (s *Service) requireAI() error {
	if s.gen == nil {
		return fmt.Errorf("%w: the text service is disabled (ai.enabled is false or no API key)", apperr.ErrConfig)
	}
	return nil
}

// Ping checks that the bridge is reachable and speaks the expected version.
func (s *Service) Ping(ctx context.Context) (int, error) {
	v, err := s.store.Version(ctx)
	if err != nil {
		return 0, err
	}
	if v != s.version {
		return v, fmt.Errorf("%w: expected %d, got %d", apperr.ErrVersionMismatch, s.version, v)
	}
	return v, nil
}

// DeckNames lists every deck.
func (s *Service) DeckNames(ctx context.Context) ([]string, error) {
	return s.store.DeckNames(ctx)
}

// FindNotes resolves a query and fetches up to limit notes (all when
// limit <= 0). It also returns the total number of matches.
func (s *Service) FindNotes(ctx context.Context, query string, limit int) ([]models.Note, int, error) {
	if query == "" {
		return nil, 0, apperr.Invalid("query is required")
	}
	ids, err := s.store.FindNotes(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	total := len(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	notes, err := s.store.NotesInfo(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := notes[:0]
	for _, n := range notes {
		if !n.Empty() {
			out = append(out, n)
		}
	}
	return out, total, nil
}

// Generation is the outcome of one generator run.
type Generation struct {
	Summary cards.Summary `json:"summary"`
	Cards   []models.Card `json:"cards"`
	// Undescribed lists spelling words that got no hint.
	Undescribed []string `json:"undescribed,omitempty"`
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
}

// ArithmeticRequest asks for drill cards over every ordered operand pair.
type ArithmeticRequest struct {
	Deck      string           `json:"deck"`
	Operands  []int            `json:"operands"`
	Operation parser.Operation `json:"operation"`
	DryRun    bool             `json:"dry_run"`
}

// Validate validates the request.
func (r ArithmeticRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deck, validation.Required),
		validation.Field(&r.Operands, validation.Required),
		validation.Field(&r.Operation, validation.In(parser.OpAddition, parser.OpMultiplication, parser.OpAll)),
	)
}

// GenerateArithmetic builds and writes arithmetic cards. Every arithmetic
// run is tagged.
func (s *Service) GenerateArithmetic(ctx context.Context, req ArithmeticRequest) (*Generation, error) {
	if req.Operation == "" {
		req.Operation = parser.OpAll
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	run := cards.NewRun(true)
	batch := cards.Arithmetic(req.Operands, req.Operation, run)
	return s.write(ctx, req.Deck, run, batch, req.DryRun), nil
}

// SpellingRequest asks for syllable cloze cards.
type SpellingRequest struct {
	Deck           string   `json:"deck"`
	Words          []string `json:"words"`
	DisableRunTag  bool     `json:"disable_run_tag"`
	NoDescriptions bool     `json:"no_descriptions"`
	DryRun         bool     `json:"dry_run"`
}

// Validate validates the request.
func (r SpellingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deck, validation.Required),
		validation.Field(&r.Words, validation.Required),
	)
}

// GenerateSpelling builds and writes spelling cards. Hints come from the
// text service unless NoDescriptions is set.
func (s *Service) GenerateSpelling(ctx context.Context, req SpellingRequest) (*Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	var describer cards.Describer
	if !req.NoDescriptions {
		if err := s.requireAI(); err != nil {
			return nil, err
		}
		describer = s.gen
	}
	run := cards.NewRun(!req.DisableRunTag)
	res, err := cards.Spelling(ctx, req.Words, describer, run, s.logger)
	if err != nil {
		return nil, err
	}
	g := s.write(ctx, req.Deck, run, res.Cards, req.DryRun)
	g.Undescribed = res.Undescribed
	return g, nil
}

// PoetryRequest asks for line-by-line recall cards.
type PoetryRequest struct {
	Deck          string      `json:"deck"`
	Poem          parser.Poem `json:"poem"`
	DisableRunTag bool        `json:"disable_run_tag"`
	DryRun        bool        `json:"dry_run"`
}

// Validate validates the request.
func (r PoetryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deck, validation.Required),
		validation.Field(&r.Poem),
	)
}

// GeneratePoetry builds and writes poetry cards.
func (s *Service) GeneratePoetry(ctx context.Context, req PoetryRequest) (*Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	run := cards.NewRun(!req.DisableRunTag)
	return s.write(ctx, req.Deck, run, cards.Poetry(req.Poem, run), req.DryRun), nil
}

// SequenceRequest asks for ordered-sequence cards.
type SequenceRequest struct {
	Deck          string          `json:"deck"`
	Sequence      parser.Sequence `json:"sequence"`
	DisableRunTag bool            `json:"disable_run_tag"`
	DryRun        bool            `json:"dry_run"`
}

// Validate validates the request.
func (r SequenceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Deck, validation.Required),
		validation.Field(&r.Sequence),
	)
}

// GenerateSequence builds and writes sequence cards.
func (s *Service) GenerateSequence(ctx context.Context, req SequenceRequest) (*Generation, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	run := cards.NewRun(!req.DisableRunTag)
	return s.write(ctx, req.Deck, run, cards.Sequence(req.Sequence, run), req.DryRun), nil
}

func (s *Service) write(ctx context.Context, deck string, run cards.Run, batch []models.Card, dryRun bool) *Generation {
	summary := cards.NewWriter(s.store, s.logger).Write(ctx, deck, run, batch, dryRun)
	return &Generation{Summary: summary, Cards: batch}
}

// TransformRandomBasic runs the rephrase-and-retag pipeline. report may be
// nil.
func (s *Service) TransformRandomBasic(ctx context.Context, opts transform.Options, report transform.Reporter) (*transform.Result, error) {
	if err := s.requireAI(); err != nil {
		return nil, err
	}
	p := transform.New(s.store, s.gen, transform.WithLogger(s.logger), transform.WithReporter(report))
	res, err := p.Run(ctx, opts)
	if err != nil {
		return nil, invalid(err)
	}
	return res, nil
}
