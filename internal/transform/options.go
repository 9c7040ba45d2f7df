package transform

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultVariations is the number of rephrasings requested per note.
const DefaultVariations = 2

// Options selects the notes to transform and how.
type Options struct {
	// Query is passed to the store verbatim.
	Query string `json:"query"`
	// Field names the field holding the prompt to rephrase.
	Field string `json:"field"`
	// Variations is the number of rephrasings per note; zero means DefaultVariations.
	Variations int `json:"variations"`
	// MaxNotes caps how many matched notes are processed; zero or less is unbounded.
	MaxNotes int  `json:"max_notes"`
	DryRun   bool `json:"dry_run"`
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.Variations == 0 {
		o.Variations = DefaultVariations
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Query, validation.Required),
		validation.Field(&o.Field, validation.Required),
		validation.Field(&o.Variations, validation.Required, validation.Min(1)),
	)
}

// Check reports whether the options would be accepted by Pipeline.Run.
func (o Options) Check() error {
	return o.withDefaults().Validate()
}
