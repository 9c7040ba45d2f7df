// Package parser turns raw user input into validated generator input.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/ankigen/internal/apperr"
)

// Operation selects which arithmetic problems are generated.
type Operation string

// Supported operations.
const (
	OpAddition       Operation = "addition"
	OpMultiplication Operation = "multiplication"
	OpAll            Operation = "all"
)

// Expand returns the concrete operations selected by o.
func (o Operation) Expand() []Operation {
	if o == OpAll {
		return []Operation{OpAddition, OpMultiplication}
	}
	return []Operation{o}
}

// ParseOperation validates an operation name. An empty name means all.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case "":
		return OpAll, nil
	case OpAddition, OpMultiplication, OpAll:
		return op, nil
	}
	return "", apperr.Invalid("unknown operation %q: want addition, multiplication or all", s)
}

// ParseOperands parses a comma-delimited list of integers such as "3,7,8".
func ParseOperands(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, apperr.Invalid("at least one operand must be provided")
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, apperr.Invalid("operands must be a comma-delimited list of numbers (e.g. '3,7,8,9'), got %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseWords reads one word per line, trimming each and dropping blank lines.
func ParseWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parser: read words: %w", err)
	}
	if len(words) == 0 {
		return nil, apperr.Invalid("input contains no words")
	}
	return words, nil
}

// Poem is a titled, attributed list of lines.
type Poem struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Lines  []string `json:"lines"`
}

// ParsePoem reads a poem. The plain form is title on line 1, author on
// line 2 and the poem from line 3; blank poem lines are dropped. The poem may
// instead start with YAML front matter carrying title and author.
func ParsePoem(data []byte) (Poem, error) {
	h, body, ok, err := splitFrontmatter(data)
	if err != nil {
		return Poem{}, err
	}
	if ok {
		p := Poem{
			Title:  strings.TrimSpace(h.Title),
			Author: strings.TrimSpace(h.Author),
			Lines:  nonBlank(splitLines(body)),
		}
		return p, p.Validate()
	}

	lines := splitLines(data)
	if len(lines) < 3 {
		return Poem{}, apperr.Invalid("Input format error: Expected title, author, and at least one line of the poem.")
	}
	p := Poem{
		Title:  strings.TrimSpace(lines[0]),
		Author: strings.TrimSpace(lines[1]),
		Lines:  nonBlank(lines[2:]),
	}
	return p, p.Validate()
}

// Validate checks that the poem has a title, an author and at least one line.
func (p Poem) Validate() error {
	switch {
	case p.Title == "":
		return &apperr.InputError{Line: 1, Msg: "Title cannot be empty."}
	case p.Author == "":
		return &apperr.InputError{Line: 2, Msg: "Author cannot be empty."}
	case len(p.Lines) == 0:
		return apperr.Invalid("Poem must have at least one line.")
	}
	return nil
}

// Sequence is a titled, ordered list of elements.
type Sequence struct {
	Title    string   `json:"title"`
	Elements []string `json:"elements"`
}

// ParseSequence reads a sequence: title on line 1, one element per following
// line. YAML front matter with a title may replace the first line.
func ParseSequence(data []byte) (Sequence, error) {
	h, body, ok, err := splitFrontmatter(data)
	if err != nil {
		return Sequence{}, err
	}
	if ok {
		s := Sequence{Title: strings.TrimSpace(h.Title), Elements: nonBlank(splitLines(body))}
		return s, s.Validate()
	}

	lines := splitLines(data)
	switch {
	case len(lines) == 0:
		return Sequence{}, apperr.Invalid("Input is empty.")
	case len(lines) < 2:
		return Sequence{}, apperr.Invalid("Input format error: Expected title and at least one sequence element.")
	}
	s := Sequence{Title: strings.TrimSpace(lines[0]), Elements: nonBlank(lines[1:])}
	return s, s.Validate()
}

// Validate checks that the sequence has a title and at least one element.
func (s Sequence) Validate() error {
	switch {
	case s.Title == "":
		return &apperr.InputError{Line: 1, Msg: "Title cannot be empty."}
	case len(s.Elements) == 0:
		return apperr.Invalid("Sequence must have at least one element.")
	}
	return nil
}

// splitLines splits data into lines without a trailing empty line.
func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(bytes.TrimRight(data, "\r\n")), "\r\n", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
