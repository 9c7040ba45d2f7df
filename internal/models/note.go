// Package models defines the domain types for ankigen.
package models

// Note models and tags understood by the store.
const (
	ModelBasic       = "Basic"
	ModelCloze       = "Cloze"
	ModelRandomBasic = "RandomBasic"

	// TagGenerated marks every note this tool creates.
	TagGenerated = "ankigen-generated"
)

// Marker is the character that joins rephrased variants. Its presence in a
// field marks the note as already transformed.
const (
	Marker           = "|"
	VariantSeparator = " " + Marker + " "
)

// Note is a flashcard record as returned by the store.
type Note struct {
	ID         int64             `json:"id"`
	ModelName  string            `json:"model_name"`
	Fields     map[string]string `json:"fields"`
	FieldOrder []string          `json:"field_order,omitempty"`
	Tags       []string          `json:"tags"`
}

// Empty reports whether the store returned a placeholder for an unknown id.
func (n Note) Empty() bool {
	return n.ID == 0 && n.ModelName == ""
}

// Field returns the value of a field and whether the note has it.
func (n Note) Field(name string) (string, bool) {
	v, ok := n.Fields[name]
	return v, ok
}

// Card is a note waiting to be created.
type Card struct {
	Model  string            `json:"model"`
	Fields map[string]string `json:"fields"`
	Tags   []string          `json:"tags"`
}

// Front returns the prompt side of the card: "Front" for Basic cards and
// "Text" for Cloze cards.
func (c Card) Front() string {
	if c.Model == ModelCloze {
		return c.Fields["Text"]
	}
	return c.Fields["Front"]
}
