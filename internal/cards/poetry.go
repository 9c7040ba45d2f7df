package cards

import (
	"strings"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/parser"
)

const (
	poemBeginning = "<i>Beginning</i>"
	lineBreak     = "<br>"
	ellipsis      = "..."
)

// Poetry builds one Basic card per line. The front shows up to two
// preceding lines and asks for the next; the back is the line itself.
func Poetry(p parser.Poem, run Run) []models.Card {
	tags := run.withRun(models.TagGenerated, "poetry", TitleTag("poem", p.Title))
	out := newCollection()
	for i, line := range p.Lines {
		var shown []string
		switch i {
		case 0:
			shown = []string{poemBeginning}
		case 1:
			shown = []string{poemBeginning, p.Lines[0]}
		default:
			shown = []string{p.Lines[i-2], p.Lines[i-1]}
		}
		front := strings.Join(append(shown, ellipsis), lineBreak)
		out.add(basic(front, line, tags))
	}
	return out.cards
}
