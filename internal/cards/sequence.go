package cards

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/parser"
)

// Card types produced for a sequence, also used as tags.
const (
	SeqRecallAll   = "recall-all"
	SeqClozeAll    = "cloze-all"
	SeqForward     = "forward"
	SeqBackward    = "backward"
	SeqSuccessor   = "successor"
	SeqPredecessor = "predecessor"
)

// Sequence builds recall-all and cloze-all cards for the whole sequence,
// then forward, backward, successor and predecessor cards per element.
func Sequence(s parser.Sequence, run Run) []models.Card {
	titleTag := TitleTag("sequence", s.Title)
	tags := func(kind string) []string {
		return run.withRun(models.TagGenerated, "sequence", kind, titleTag)
	}
	out := newCollection()

	out.add(basic(
		fmt.Sprintf("%s: Recall all elements of the sequence.", s.Title),
		strings.Join(s.Elements, ", ")+".",
		tags(SeqRecallAll),
	))

	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		parts[i] = fmt.Sprintf("{{c%d::%s}}", i+1, e)
	}
	out.add(cloze(
		fmt.Sprintf("%s: Elements: %s.", s.Title, strings.Join(parts, " ")),
		"Sequence: "+s.Title,
		tags(SeqClozeAll),
	))

	for i, e := range s.Elements {
		pos := i + 1
		out.add(basic(fmt.Sprintf("%s: What is element #%d?", s.Title, pos), e, tags(SeqForward)))
		out.add(basic(fmt.Sprintf("%s: What is the position of '%s'?", s.Title, e), strconv.Itoa(pos), tags(SeqBackward)))
		if i < len(s.Elements)-1 {
			out.add(basic(fmt.Sprintf("%s: What comes after '%s'?", s.Title, e), s.Elements[i+1], tags(SeqSuccessor)))
		}
		if i > 0 {
			out.add(basic(fmt.Sprintf("%s: What comes before '%s'?", s.Title, e), s.Elements[i-1], tags(SeqPredecessor)))
		}
	}
	return out.cards
}
