package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/ankigen/internal/apperr"
)

// StubGenerator is a scripted text generator.
//
// Rephrase answers from Variants when the text is listed there (an empty
// entry means "nothing usable"), otherwise it invents n numbered variants.
// Describe answers from Descriptions and fails softly for unknown words.
type StubGenerator struct {
	Variants     map[string][]string
	Descriptions map[string]string
	Err          error

	mu            sync.Mutex
	rephraseCalls []string
	describeCalls []string
}

// Rephrase implements textgen.Generator.
func (g *StubGenerator) Rephrase(_ context.Context, text string, n int) ([]string, error) {
	g.mu.Lock()
	g.rephraseCalls = append(g.rephraseCalls, text)
	g.mu.Unlock()

	if g.Err != nil {
		return nil, g.Err
	}
	if v, ok := g.Variants[text]; ok {
		if len(v) == 0 {
			return nil, apperr.ErrNoContent
		}
		if len(v) > n {
			v = v[:n]
		}
		return v, nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s (variant %d)", text, i+1)
	}
	return out, nil
}

// Describe implements textgen.Generator.
func (g *StubGenerator) Describe(_ context.Context, word string) (string, error) {
	g.mu.Lock()
	g.describeCalls = append(g.describeCalls, word)
	g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}
	if d, ok := g.Descriptions[word]; ok && d != "" {
		return d, nil
	}
	return "", apperr.ErrNoContent
}

// RephraseCalls returns the texts passed to Rephrase.
func (g *StubGenerator) RephraseCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.rephraseCalls...)
}

// DescribeCalls returns the words passed to Describe.
func (g *StubGenerator) DescribeCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.describeCalls...)
}
