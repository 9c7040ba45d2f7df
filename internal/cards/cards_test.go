package cards_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/ankigen/internal/cards"
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/parser"
	"github.com/starford/ankigen/internal/testutil"
)

func fronts(cs []models.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Front()
	}
	return out
}

func TestNewRun(t *testing.T) {
	assert.False(t, cards.NewRun(false).Tagged())
	a, b := cards.NewRun(true), cards.NewRun(true)
	assert.True(t, a.Tagged())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestArithmetic_Addition(t *testing.T) {
	run := cards.NewRun(true)
	got := cards.Arithmetic([]int{2, 3}, parser.OpAddition, run)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"2+2", "2+3", "3+2", "3+3"}, fronts(got))
	assert.Equal(t, "5", got[1].Fields["Back"])
	for _, c := range got {
		assert.Equal(t, models.ModelBasic, c.Model)
		assert.Equal(t, []string{run.ID, models.TagGenerated, "mental-arithmetic", "addition"}, c.Tags)
	}
}

func TestArithmetic_AllDedupesRepeatedOperands(t *testing.T) {
	got := cards.Arithmetic([]int{4, 4}, parser.OpAll, cards.NewRun(true))
	assert.Equal(t, []string{"4+4", "4x4"}, fronts(got))
	assert.Equal(t, "16", got[1].Fields["Back"])
	assert.Equal(t, "multiplication", got[1].Tags[3])
}

func TestPoetry_Fronts(t *testing.T) {
	p := parser.Poem{Title: "The Road Not Taken", Author: "Robert Frost", Lines: []string{"L1", "L2", "L3", "L4"}}
	got := cards.Poetry(p, cards.NewRun(false))

	want := []string{
		"<i>Beginning</i><br>...",
		"<i>Beginning</i><br>L1<br>...",
		"L1<br>L2<br>...",
		"L2<br>L3<br>...",
	}
	if diff := cmp.Diff(want, fronts(got)); diff != "" {
		t.Errorf("fronts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "L3", got[2].Fields["Back"])
	assert.Equal(t, []string{models.TagGenerated, "poetry", "poem-the-road-not-taken"}, got[0].Tags)
}

func TestSequence_Planets(t *testing.T) {
	run := cards.NewRun(true)
	seq := parser.Sequence{Title: "Planets", Elements: []string{"Mercury", "Venus", "Earth"}}
	got := cards.Sequence(seq, run)

	require.Len(t, got, 12)
	assert.Equal(t, "Planets: Recall all elements of the sequence.", got[0].Front())
	assert.Equal(t, "Mercury, Venus, Earth.", got[0].Fields["Back"])

	assert.Equal(t, models.ModelCloze, got[1].Model)
	assert.Equal(t, "Planets: Elements: {{c1::Mercury}} {{c2::Venus}} {{c3::Earth}}.", got[1].Fields["Text"])
	assert.Equal(t, "Sequence: Planets", got[1].Fields["Extra"])

	byFront := map[string]models.Card{}
	for _, c := range got {
		byFront[c.Front()] = c
	}
	assert.Equal(t, "Venus", byFront["Planets: What is element #2?"].Fields["Back"])
	assert.Equal(t, "3", byFront["Planets: What is the position of 'Earth'?"].Fields["Back"])
	assert.Equal(t, "Venus", byFront["Planets: What comes after 'Mercury'?"].Fields["Back"])
	assert.Equal(t, "Mercury", byFront["Planets: What comes before 'Venus'?"].Fields["Back"])
	assert.NotContains(t, byFront, "Planets: What comes after 'Earth'?")
	assert.NotContains(t, byFront, "Planets: What comes before 'Mercury'?")

	assert.Equal(t,
		[]string{models.TagGenerated, "sequence", cards.SeqSuccessor, "sequence-planets", run.ID},
		byFront["Planets: What comes after 'Mercury'?"].Tags)
}

func TestSequence_SingleElement(t *testing.T) {
	got := cards.Sequence(parser.Sequence{Title: "One", Elements: []string{"x"}}, cards.NewRun(false))
	// recall-all, cloze-all, forward, backward
	assert.Len(t, got, 4)
}

func TestSyllabify(t *testing.T) {
	tests := map[string][]string{
		"beautiful": {"beau", "ti", "ful"},
		"spelling":  {"spel", "ling"},
		"table":     {"ta", "ble"},
		"window":    {"win", "dow"},
		"pocket":    {"pock", "et"},
		"hundred":   {"hun", "dred"},
		"make":      {"make"},
		"rhythm":    {"rhythm"},
		"cat":       {"cat"},
		"Banana":    {"Ba", "na", "na"},

		// consonant + le keeps its own syllable; vowel + le is a silent e
		"little": {"lit", "tle"},
		"candle": {"can", "dle"},
		"apple":  {"ap", "ple"},
		"whale":  {"whale"},

		// x closes the syllable before it
		"taxi":  {"tax", "i"},
		"exit":  {"ex", "it"},
		"extra": {"ex", "tra"},

		// y is a vowel after a consonant, a consonant at the start or after a vowel
		"happy":    {"hap", "py"},
		"python":   {"py", "thon"},
		"myth":     {"myth"},
		"yellow":   {"yel", "low"},
		"keyboard": {"key", "board"},
	}
	for word, want := range tests {
		assert.Equal(t, want, cards.Syllabify(word), word)
	}
}

func TestSyllabify_RoundTrips(t *testing.T) {
	for _, w := range []string{"extraordinary", "strengths", "queueing", "a", "", "naïveté", "yesterday"} {
		assert.Equal(t, w, strings.Join(cards.Syllabify(w), ""), w)
	}
}

func TestSpelling(t *testing.T) {
	gen := &testutil.StubGenerator{Descriptions: map[string]string{"banana": "A yellow fruit"}}
	run := cards.NewRun(true)

	res, err := cards.Spelling(context.Background(), []string{"banana", "window"}, gen, run, nil)
	require.NoError(t, err)
	require.Len(t, res.Cards, 2)

	assert.Equal(t, "A yellow fruit: {{c1::ba}}{{c2::na}}{{c3::na}}", res.Cards[0].Fields["Text"])
	assert.Equal(t, "Original word: banana", res.Cards[0].Fields["Extra"])
	assert.Equal(t, "{{c1::win}}{{c2::dow}}", res.Cards[1].Fields["Text"])
	assert.Equal(t, []string{"window"}, res.Undescribed)
	assert.Equal(t, []string{run.ID, models.TagGenerated, "spelling-cloze"}, res.Cards[0].Tags)
}

func TestSpelling_NoDescriber(t *testing.T) {
	res, err := cards.Spelling(context.Background(), []string{"table"}, nil, cards.NewRun(false), nil)
	require.NoError(t, err)
	assert.Equal(t, "{{c1::ta}}{{c2::ble}}", res.Cards[0].Fields["Text"])
	assert.Empty(t, res.Undescribed)
	assert.Equal(t, []string{models.TagGenerated, "spelling-cloze"}, res.Cards[0].Tags)
}

func TestSpelling_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cards.Spelling(ctx, []string{"table"}, nil, cards.NewRun(false), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
