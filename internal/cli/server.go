package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/starford/ankigen/internal"
	"github.com/starford/ankigen/internal/mcpserver"
)

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local REST API with server-sent run events",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP port (overrides app.http.port)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("port") {
				a.cfg.App.HTTP.Port = cmd.Int("port")
				if err := a.cfg.App.HTTP.Validate(); err != nil {
					return err
				}
			}
			svc, err := a.newService(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(a.cfg), internal.WithService(svc))
		},
	}
}

func (a *app) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve ankigen tools over MCP on stdin/stdout",
		Action: func(ctx context.Context, _ *cli.Command) error {
			svc, err := a.newService(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			return mcpserver.New(svc, a.version).ServeStdio()
		},
	}
}
