package cards

import (
	"fmt"
	"strconv"

	"github.com/starford/ankigen/internal/models"
	"github.com/starford/ankigen/internal/parser"
)

const tagArithmetic = "mental-arithmetic"

// Arithmetic builds one Basic card per ordered operand pair and selected
// operation: "a+b" for addition, "axb" for multiplication. Operands may
// repeat; the resulting duplicate problems are emitted once.
func Arithmetic(operands []int, op parser.Operation, run Run) []models.Card {
	ops := op.Expand()
	out := newCollection()
	for _, a := range operands {
		for _, b := range operands {
			for _, o := range ops {
				front, back := problem(a, b, o)
				out.add(basic(front, back, run.runFirst(models.TagGenerated, tagArithmetic, string(o))))
			}
		}
	}
	return out.cards
}

func problem(a, b int, op parser.Operation) (front, back string) {
	if op == parser.OpMultiplication {
		return fmt.Sprintf("%dx%d", a, b), strconv.Itoa(a * b)
	}
	return fmt.Sprintf("%d+%d", a, b), strconv.Itoa(a + b)
}
