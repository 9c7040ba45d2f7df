// Package transform rewrites Basic notes into RandomBasic notes whose prompt
// field carries the original text followed by generated rephrasings.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/textgen"
)

// Pipeline runs transformations against a store with a text generator.
// It processes one note at a time and holds no state between runs.
type Pipeline struct {
	store  storage.Provider
	gen    textgen.Generator
	logger *slog.Logger
	report Reporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithReporter registers a per-note progress callback.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.report = r }
}

// New creates a Pipeline.
func New(store storage.Provider, gen textgen.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, gen: gen, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run transforms every eligible note matched by opts.Query. The returned
// error is non-nil only for invalid options; store and generator failures
// are recorded in the Result. A failed query aborts the run with a single
// error entry.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("transform: invalid options: %w", err)
	}
	res := newResult(opts.DryRun)

	ids, err := p.store.FindNotes(ctx, opts.Query)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("find notes %q: %v", opts.Query, err))
		p.logger.Error("transform: query failed", slog.String("query", opts.Query), slog.String("error", err.Error()))
		return res, nil
	}
	res.NotesFound = len(ids)
	p.logger.Info("transform: notes found", slog.String("query", opts.Query), slog.Int("count", len(ids)))

	if opts.MaxNotes > 0 && len(ids) > opts.MaxNotes {
		p.logger.Info("transform: limiting run", slog.Int("max_notes", opts.MaxNotes))
		ids = ids[:opts.MaxNotes]
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("run interrupted after %d of %d notes: %v", i, len(ids), err))
			break
		}
		o := p.process(ctx, id, opts)
		res.fold(o)
		if p.report != nil {
			p.report(NoteReport{Index: i + 1, Total: len(ids), Outcome: o})
		}
	}
	return res, nil
}

// process handles a single note: fetch, classify, rephrase, write back.
func (p *Pipeline) process(ctx context.Context, id int64, opts Options) Outcome {
	log := p.logger.With(slog.Int64("note_id", id))

	notes, err := p.store.NotesInfo(ctx, []int64{id})
	if err != nil {
		log.Warn("transform: fetch failed", slog.String("error", err.Error()))
		return Outcome{NoteID: id, Status: StatusFailedStore, Err: fmt.Errorf("fetch note %d: %w", id, err)}
	}
	if len(notes) == 0 || notes[0].Empty() {
		log.Warn("transform: no details returned")
		return Outcome{NoteID: id, Status: StatusFailedStore, Err: fmt.Errorf("fetch note %d: no details returned", id)}
	}
	note := notes[0]

	if skip, eligible := classify(note, opts.Field); !eligible {
		log.Debug("transform: skipped", slog.String("reason", skip.String()), slog.String("model", note.ModelName))
		return Outcome{NoteID: id, Status: skip}
	}
	original := note.Fields[opts.Field]

	variants, err := p.gen.Rephrase(ctx, original, opts.Variations)
	value, ok := Combine(original, variants)
	if err != nil || !ok {
		attrs := []any{}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		log.Warn("transform: no rephrasings generated", attrs...)
		return Outcome{NoteID: id, Status: StatusFailedAI, Eligible: true}
	}

	fields := maps.Clone(note.Fields)
	fields[opts.Field] = value

	if opts.DryRun {
		log.Info("transform: dry run", slog.String("value", value))
		return Outcome{NoteID: id, Status: StatusDryRun, Eligible: true, Value: value}
	}

	if err := p.store.UpdateNoteModel(ctx, id, models.ModelRandomBasic, fields, note.Tags); err != nil {
		log.Warn("transform: update failed", slog.String("error", err.Error()))
		return Outcome{NoteID: id, Status: StatusFailedStore, Eligible: true, Err: fmt.Errorf("update note %d: %w", id, err)}
	}
	log.Info("transform: note updated", slog.String("model", models.ModelRandomBasic))
	return Outcome{NoteID: id, Status: StatusUpdated, Eligible: true, Value: value}
}

// classify reports whether a note is eligible and, when it is not, why. A
// note is eligible when it is a Basic note with the field present and the
// field does not already contain the marker. A RandomBasic note whose field
// carries the marker is the output of an earlier run and counts as already
// transformed rather than as the wrong model. This departs from a strict
// model-first check, which would report such a note as the wrong model.
func classify(n models.Note, field string) (skip Status, eligible bool) {
	v, ok := n.Field(field)
	if n.ModelName != models.ModelBasic {
		if n.ModelName == models.ModelRandomBasic && ok && Transformed(v) {
			return StatusAlreadyTransformed, false
		}
		return StatusWrongModel, false
	}
	if !ok {
		return StatusFieldMissing, false
	}
	if Transformed(v) {
		return StatusAlreadyTransformed, false
	}
	return 0, true
}

// Transformed reports whether a field value already carries rephrasings.
// Any "|" in user-authored text also counts.
func Transformed(value string) bool {
	return strings.Contains(value, models.Marker)
}

// Combine joins the trimmed original and the trimmed, non-blank variants
// with the variant separator. ok is false when no variant is usable.
func Combine(original string, variants []string) (value string, ok bool) {
	parts := []string{strings.TrimSpace(original)}
	for _, v := range variants {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 1 {
		return "", false
	}
	return strings.Join(parts, models.VariantSeparator), true
}
