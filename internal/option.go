package internal

import (
	"log/slog"

	"github.com/starford/ankigen/internal/noteservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	service *noteservice.Service
	logger  *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithService supplies a prebuilt note service instead of one built from
// the configuration.
func WithService(svc *noteservice.Service) Option {
	return func(a *application) {
		a.service = svc
	}
}

// WithLogger overrides the JSON logger Run installs by default.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}
