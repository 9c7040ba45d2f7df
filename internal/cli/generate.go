package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/parser"
	"github.com/starford/ankigen/internal/ui"
)

// previewLimit caps the cards listed by a dry run.
const previewLimit = 20

func deckFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "deck",
		Aliases:  []string{"deck-name"},
		Usage:    "Deck to add the cards to",
		Required: true,
	}
}

func inputFlag(what string) cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"input-file", "i"},
		Usage:   "File containing the " + what + " (stdin when omitted)",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Print the cards without adding them",
	}
}

func disableRunTagFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "disable-run-tag",
		Usage: "Do not tag the cards with a run-specific id",
	}
}

func (a *app) generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate new notes",
		Commands: []*cli.Command{
			{
				Name:  "arithmetic",
				Usage: "Mental-arithmetic cards for every ordered pair of operands",
				Flags: []cli.Flag{
					deckFlag(),
					&cli.StringFlag{
						Name:     "operands",
						Usage:    "Comma-delimited numbers, e.g. 3,7,8,9",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "operations",
						Aliases: []string{"operation"},
						Usage:   "addition, multiplication or all",
						Value:   string(parser.OpAll),
					},
					dryRunFlag(),
				},
				Action: a.generateArithmetic,
			},
			{
				Name:  "spelling",
				Usage: "Syllable cloze cards for a word list, with AI hints",
				Flags: []cli.Flag{
					deckFlag(),
					inputFlag("words, one per line"),
					disableRunTagFlag(),
					&cli.BoolFlag{
						Name:  "no-descriptions",
						Usage: "Skip AI hints; no text service needed",
					},
					dryRunFlag(),
				},
				Action: a.generateSpelling,
			},
			{
				Name:  "poetry",
				Usage: "Line-by-line recall cards for a poem (title, author, then lines)",
				Flags: []cli.Flag{
					deckFlag(),
					inputFlag("poem"),
					disableRunTagFlag(),
					dryRunFlag(),
				},
				Action: a.generatePoetry,
			},
			{
				Name:  "sequence",
				Usage: "Recall cards for an ordered sequence (title, then one element per line)",
				Flags: []cli.Flag{
					deckFlag(),
					inputFlag("sequence"),
					disableRunTagFlag(),
					dryRunFlag(),
				},
				Action: a.generateSequence,
			},
		},
	}
}

func (a *app) generateArithmetic(ctx context.Context, cmd *cli.Command) error {
	operands, err := parser.ParseOperands(cmd.String("operands"))
	if err != nil {
		return fmt.Errorf("invalid operands: %w", err)
	}
	op, err := parser.ParseOperation(cmd.String("operations"))
	if err != nil {
		return err
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	a.announce("arithmetic", cmd)
	g, err := svc.GenerateArithmetic(ctx, noteservice.ArithmeticRequest{
		Deck:      cmd.String("deck"),
		Operands:  operands,
		Operation: op,
		DryRun:    cmd.Bool("dry-run"),
	})
	if err != nil {
		return err
	}
	a.report("Arithmetic", g)
	return nil
}

func (a *app) generateSpelling(ctx context.Context, cmd *cli.Command) error {
	data, err := a.readInput(cmd.String("input"), "words")
	if err != nil {
		return err
	}
	words, err := parser.ParseWords(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	if !cmd.Bool("no-descriptions") {
		if err := a.cfg.AI.Require(); err != nil {
			return err
		}
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	a.announce("spelling", cmd)
	g, err := svc.GenerateSpelling(ctx, noteservice.SpellingRequest{
		Deck:           cmd.String("deck"),
		Words:          words,
		DisableRunTag:  cmd.Bool("disable-run-tag"),
		NoDescriptions: cmd.Bool("no-descriptions"),
		DryRun:         cmd.Bool("dry-run"),
	})
	if err != nil {
		return err
	}
	a.report("Spelling", g)
	return nil
}

func (a *app) generatePoetry(ctx context.Context, cmd *cli.Command) error {
	data, err := a.readInput(cmd.String("input"), "the poem (title, author, then lines)")
	if err != nil {
		return err
	}
	poem, err := parser.ParsePoem(data)
	if err != nil {
		return fmt.Errorf("input error: %w (expected title on line 1, author on line 2, poem lines after)", err)
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	a.print(fmt.Sprintf("Starting poetry card generation for %q by %s in deck %q...\n", poem.Title, poem.Author, cmd.String("deck")))
	a.dryRunNotice(cmd)
	g, err := svc.GeneratePoetry(ctx, noteservice.PoetryRequest{
		Deck:          cmd.String("deck"),
		Poem:          poem,
		DisableRunTag: cmd.Bool("disable-run-tag"),
		DryRun:        cmd.Bool("dry-run"),
	})
	if err != nil {
		return err
	}
	a.report("Poetry", g)
	return nil
}

func (a *app) generateSequence(ctx context.Context, cmd *cli.Command) error {
	data, err := a.readInput(cmd.String("input"), "the sequence (title, then elements)")
	if err != nil {
		return err
	}
	seq, err := parser.ParseSequence(data)
	if err != nil {
		return fmt.Errorf("input error: %w (expected title on line 1, one element per line after)", err)
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	a.print(fmt.Sprintf("Starting sequence card generation for %q in deck %q...\n", seq.Title, cmd.String("deck")))
	a.dryRunNotice(cmd)
	g, err := svc.GenerateSequence(ctx, noteservice.SequenceRequest{
		Deck:          cmd.String("deck"),
		Sequence:      seq,
		DisableRunTag: cmd.Bool("disable-run-tag"),
		DryRun:        cmd.Bool("dry-run"),
	})
	if err != nil {
		return err
	}
	a.report("Sequence", g)
	return nil
}

func (a *app) announce(kind string, cmd *cli.Command) {
	a.print(fmt.Sprintf("Starting %s card generation for deck %q...\n", kind, cmd.String("deck")))
	a.dryRunNotice(cmd)
}

func (a *app) dryRunNotice(cmd *cli.Command) {
	if cmd.Bool("dry-run") {
		a.print(ui.Accent.Render("DRY RUN mode enabled. No cards will be added.") + "\n")
	}
}

func (a *app) report(kind string, g *noteservice.Generation) {
	if g.Summary.DryRun {
		a.print(ui.Preview(g.Cards, previewLimit))
	}
	a.print(ui.Generation(kind, g.Summary, g.Undescribed))
}
