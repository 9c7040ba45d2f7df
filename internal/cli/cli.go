// Package cli builds the ankigen command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/ankigen/internal"
	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/ui"
	pkgconfig "github.com/starford/ankigen/pkg/config"
)

// ServiceFactory builds the note service for a loaded configuration.
type ServiceFactory func(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*noteservice.Service, error)

type app struct {
	version    string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	newService ServiceFactory

	cfg    *internal.Config
	logger *slog.Logger
}

// Option configures the command tree.
type Option func(*app)

// WithIO replaces the process standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	}
}

// WithServiceFactory replaces internal.NewService.
func WithServiceFactory(f ServiceFactory) Option {
	return func(a *app) { a.newService = f }
}

// New returns the root command.
func New(version string, opts ...Option) *cli.Command {
	a := &app{
		version:    version,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		newService: internal.NewService,
	}
	for _, o := range opts {
		o(a)
	}

	return &cli.Command{
		Name:      "ankigen",
		Usage:     "Automate Anki note creation and rephrase existing cards with AI",
		Version:   version,
		Reader:    a.stdin,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: internal.DefaultConfigFile,
				Value:       internal.DefaultConfigFile,
				Sources:     cli.EnvVars(internal.EnvConfigFile),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			a.checkCommand(),
			a.decksCommand(),
			a.generateCommand(),
			a.transformCommand(),
			a.serveCommand(),
			a.mcpCommand(),
		},
	}
}

// setup loads the configuration and installs the logger.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return ctx, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return ctx, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("config validation failed: %w", err)
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(a.logger)
	return ctx, nil
}

// service builds the note service and checks the bridge handshake.
func (a *app) service(ctx context.Context) (*noteservice.Service, error) {
	svc, err := a.newService(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if _, err := svc.Ping(ctx); err != nil {
		return nil, a.connectError(err)
	}
	return svc, nil
}

func (a *app) connectError(err error) error {
	return fmt.Errorf("failed to connect to AnkiConnect at %s (is Anki running with the AnkiConnect add-on?): %w",
		a.cfg.Bridge.URL, err)
}

func (a *app) print(s string) {
	_, _ = io.WriteString(a.stdout, s)
}

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Test the connection to AnkiConnect",
		Action: func(ctx context.Context, _ *cli.Command) error {
			svc, err := a.newService(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			a.print("Attempting to connect to AnkiConnect...\n")
			v, err := svc.Ping(ctx)
			if err != nil {
				return a.connectError(err)
			}
			a.print(fmt.Sprintf("AnkiConnect connection successful (version %d).\n", v))
			if svc.AIEnabled() {
				a.print("Text service enabled (" + a.cfg.AI.Model + ").\n")
			} else {
				a.print("Text service disabled.\n")
			}
			return nil
		},
	}
}

func (a *app) decksCommand() *cli.Command {
	return &cli.Command{
		Name:  "decks",
		Usage: "List all deck names",
		Action: func(ctx context.Context, _ *cli.Command) error {
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			decks, err := svc.DeckNames(ctx)
			if err != nil {
				return fmt.Errorf("could not retrieve deck names: %w", err)
			}
			if len(decks) == 0 {
				a.print("No decks found in your Anki collection.\n")
				return nil
			}
			a.print(ui.Decks(decks) + "\n")
			return nil
		},
	}
}
