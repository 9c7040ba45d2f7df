package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/ankigen/internal/transform"
	"github.com/starford/ankigen/internal/ui"
)

func (a *app) transformCommand() *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "Transform existing notes",
		Commands: []*cli.Command{
			{
				Name:  "random-basic",
				Usage: "Rephrase a field of matching Basic notes with AI and convert them to RandomBasic",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Anki search query selecting the notes",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "field",
						Aliases:  []string{"prompt-field"},
						Usage:    "Field holding the prompt, e.g. Front",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "variations",
						Aliases: []string{"num-variations"},
						Usage:   "Rephrased variations per note",
						Value:   transform.DefaultVariations,
					},
					&cli.IntFlag{
						Name:  "max-notes",
						Usage: "Process at most this many notes (0 for no limit)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the changes without modifying notes",
					},
				},
				Action: a.transformRandomBasic,
			},
		},
	}
}

func (a *app) transformRandomBasic(ctx context.Context, cmd *cli.Command) error {
	if err := a.cfg.AI.Require(); err != nil {
		return err
	}
	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	opts := transform.Options{
		Query:      cmd.String("query"),
		Field:      cmd.String("field"),
		Variations: cmd.Int("variations"),
		MaxNotes:   cmd.Int("max-notes"),
		DryRun:     cmd.Bool("dry-run"),
	}
	a.print(fmt.Sprintf("Starting RandomBasic transformation for notes matching %q on field %q...\n", opts.Query, opts.Field))
	if opts.DryRun {
		a.print(ui.Accent.Render("DRY RUN mode enabled. No notes will be modified.") + "\n")
	}

	res, err := svc.TransformRandomBasic(ctx, opts, func(r transform.NoteReport) {
		line := ui.NoteLine(r)
		if r.Status == transform.StatusDryRun && r.Value != "" {
			line += "\n    " + r.Value
		}
		a.print(line + "\n")
	})
	if err != nil {
		return err
	}
	a.print("\n" + ui.Transform(opts, res))
	return nil
}
