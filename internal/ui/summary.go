package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starford/ankigen/internal/cards"
	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/transform"
)

// kvTable renders label/value rows without borders.
func kvTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return Muted.PaddingRight(2)
			}
			return lipgloss.NewStyle()
		}).
		Rows(rows...).
		Render()
}

func heading(s string) string {
	return AccentBold.Render("── " + s + " ──")
}

// Decks renders a numbered deck list.
func Decks(decks []string) string {
	if len(decks) == 0 {
		return Muted.Render("No decks found in the collection.")
	}
	rows := make([][]string, len(decks))
	for i, d := range decks {
		rows[i] = []string{strconv.Itoa(i + 1), d}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Muted).
		Headers("No.", "Deck").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return Bold.Padding(0, 1)
			case col == 0:
				return Muted.Padding(0, 1)
			}
			return Accent.Padding(0, 1)
		}).
		Rows(rows...)
	return heading("Decks") + "\n" + t.Render()
}

// Generation renders the outcome of a generator run.
func Generation(kind string, s cards.Summary, undescribed []string) string {
	var b strings.Builder
	b.WriteString(heading(kind+" summary") + "\n")

	rows := [][]string{
		{"Deck", s.Deck},
		{"Cards generated", strconv.Itoa(s.Generated)},
	}
	if s.DryRun {
		rows = append(rows, []string{"Cards that would be created", strconv.Itoa(s.Created)})
	} else {
		rows = append(rows,
			[]string{"Cards created", strconv.Itoa(s.Created)},
			[]string{"Duplicates skipped", strconv.Itoa(s.Duplicates)},
		)
	}
	if s.RunID != "" {
		rows = append(rows, []string{"Run tag", s.RunID})
	}
	if len(undescribed) > 0 {
		rows = append(rows, []string{"Words without hint", strings.Join(undescribed, ", ")})
	}
	rows = append(rows, []string{"Errors", strconv.Itoa(len(s.Errors))})
	b.WriteString(kvTable(rows) + "\n")
	b.WriteString(errorList(s.Errors))

	switch {
	case s.DryRun:
		fmt.Fprintf(&b, "%s Dry run complete. %d cards would have been created.\n", SymbolSkip, s.Created)
	case s.Created > 0:
		fmt.Fprintf(&b, "%s Created %s cards in %s.\n", SymbolOK, Accent.Render(strconv.Itoa(s.Created)), Accent.Render(s.Deck))
	default:
		fmt.Fprintf(&b, "%s No cards were created.\n", SymbolFail)
	}
	if s.RunID != "" && !s.DryRun {
		b.WriteString(Muted.Render(fmt.Sprintf("Find this batch with the query \"tag:%s\".", s.RunID)) + "\n")
	}
	return b.String()
}

// Preview lists card fronts and backs, up to limit cards (all when limit <= 0).
func Preview(cs []models.Card, limit int) string {
	if len(cs) == 0 {
		return ""
	}
	shown := cs
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, len(shown))
	for i, c := range shown {
		back := c.Fields["Back"]
		if c.Model == models.ModelCloze {
			back = c.Fields["Extra"]
		}
		rows[i] = []string{strconv.Itoa(i + 1), c.Model, truncate(c.Front(), 60), truncate(back, 40)}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Muted).
		Headers("#", "Model", "Front", "Back").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Bold.Padding(0, 1)
			}
			if col < 2 {
				return Muted.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...)
	out := t.Render() + "\n"
	if hidden := len(cs) - len(shown); hidden > 0 {
		out += Muted.Render(fmt.Sprintf("… and %d more", hidden)) + "\n"
	}
	return out
}

// Transform renders the outcome of a transformation run.
func Transform(opts transform.Options, r *transform.Result) string {
	var b strings.Builder
	b.WriteString(heading("Transformation summary") + "\n")

	rows := [][]string{
		{"Query", opts.Query},
		{"Prompt field", opts.Field},
		{"Notes found by query", strconv.Itoa(r.NotesFound)},
		{"Notes eligible", strconv.Itoa(r.Eligible)},
	}
	if r.DryRun {
		rows = append(rows, []string{"Notes that would be processed", strconv.Itoa(r.Processed)})
	} else {
		rows = append(rows,
			[]string{"Notes processed", strconv.Itoa(r.Processed)},
			[]string{"Notes updated in store", strconv.Itoa(r.Updated)},
		)
	}
	rows = append(rows,
		[]string{"Skipped (not Basic)", strconv.Itoa(r.SkippedWrongModel)},
		[]string{"Skipped (field missing)", strconv.Itoa(r.SkippedFieldMissing)},
		[]string{"Skipped (already transformed)", strconv.Itoa(r.SkippedAlreadyTransformed)},
		[]string{"Failed (text generation)", strconv.Itoa(r.FailedAI)},
		[]string{"Failed (store)", strconv.Itoa(r.FailedStore)},
		[]string{"Errors", strconv.Itoa(len(r.Errors))},
	)
	b.WriteString(kvTable(rows) + "\n")
	b.WriteString(errorList(r.Errors))

	switch {
	case !r.DryRun && r.Updated > 0:
		fmt.Fprintf(&b, "%s Transformed %s notes.\n", SymbolOK, Accent.Render(strconv.Itoa(r.Updated)))
	case r.DryRun && r.Processed > 0:
		fmt.Fprintf(&b, "%s Dry run complete. %d notes would have been processed.\n", SymbolSkip, r.Processed)
	case len(r.Errors) == 0 && r.NotesFound > 0:
		b.WriteString(SymbolSkip + " No notes were transformed (not eligible or already processed).\n")
	case len(r.Errors) == 0:
		b.WriteString(SymbolSkip + " No notes found matching the query.\n")
	}
	return b.String()
}

// NoteLine renders one per-note progress line.
func NoteLine(r transform.NoteReport) string {
	sym := SymbolSkip
	switch r.Status {
	case transform.StatusUpdated, transform.StatusDryRun:
		sym = SymbolOK
	case transform.StatusFailedAI, transform.StatusFailedStore:
		sym = SymbolFail
	}
	return fmt.Sprintf("%s %s note %d %s", sym, Muted.Render(fmt.Sprintf("[%d/%d]", r.Index, r.Total)), r.NoteID, r.Status)
}

func errorList(errs []string) string {
	var b strings.Builder
	for i, e := range errs {
		fmt.Fprintf(&b, "  %s %s %s\n", SymbolFail, Muted.Render(fmt.Sprintf("%d.", i+1)), e)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
