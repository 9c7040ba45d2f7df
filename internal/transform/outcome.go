package transform

// Status is what happened to one note.
type Status int

const (
	// StatusUpdated means the note was rewritten in the store.
	StatusUpdated Status = iota
	// StatusDryRun means the note would have been rewritten.
	StatusDryRun
	StatusWrongModel
	StatusFieldMissing
	StatusAlreadyTransformed
	StatusFailedAI
	StatusFailedStore
)

var statusNames = [...]string{
	StatusUpdated:            "updated",
	StatusDryRun:             "dry-run",
	StatusWrongModel:         "skipped-wrong-model",
	StatusFieldMissing:       "skipped-field-missing",
	StatusAlreadyTransformed: "skipped-already-transformed",
	StatusFailedAI:           "failed-ai",
	StatusFailedStore:        "failed-store",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the per-note result folded into a Result by the run loop.
type Outcome struct {
	NoteID int64  `json:"note_id"`
	Status Status `json:"status"`
	// Eligible is set once the note passed classification.
	Eligible bool `json:"eligible"`
	// Value is the new field value for updated and dry-run notes.
	Value string `json:"value,omitempty"`
	// Err describes store failures.
	Err error `json:"-"`
}

// NoteReport is passed to a Reporter after each note.
type NoteReport struct {
	Index int `json:"index"` // 1-based
	Total int `json:"total"`
	Outcome
}

// Reporter observes per-note progress.
type Reporter func(NoteReport)

// Result summarises one transformation run.
type Result struct {
	NotesFound                int      `json:"notes_found"`
	Eligible                  int      `json:"eligible"`
	Processed                 int      `json:"processed"`
	Updated                   int      `json:"updated"`
	SkippedWrongModel         int      `json:"skipped_wrong_model"`
	SkippedFieldMissing       int      `json:"skipped_field_missing"`
	SkippedAlreadyTransformed int      `json:"skipped_already_transformed"`
	FailedAI                  int      `json:"failed_ai"`
	FailedStore               int      `json:"failed_store"`
	Errors                    []string `json:"errors"`
	DryRun                    bool     `json:"dry_run"`
}

func newResult(dryRun bool) *Result {
	return &Result{Errors: []string{}, DryRun: dryRun}
}

// fold adds one note outcome to the counters.
func (r *Result) fold(o Outcome) {
	if o.Eligible {
		r.Eligible++
	}
	switch o.Status {
	case StatusUpdated:
		r.Processed++
		r.Updated++
	case StatusDryRun:
		r.Processed++
	case StatusWrongModel:
		r.SkippedWrongModel++
	case StatusFieldMissing:
		r.SkippedFieldMissing++
	case StatusAlreadyTransformed:
		r.SkippedAlreadyTransformed++
	case StatusFailedAI:
		r.FailedAI++
	case StatusFailedStore:
		r.FailedStore++
		if o.Err != nil {
			r.Errors = append(r.Errors, o.Err.Error())
		}
	}
}
