package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// broker, if non-nil, receives run events and is mounted at GET /events.
func NewRouter(svc *noteservice.Service, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()

	r.Get("/status", h.Status)
	r.Get("/decks", h.ListDecks)
	r.Get("/notes", h.FindNotes)

	// Generators.
	r.Route("/generate", func(r chi.Router) {
		r.Post("/arithmetic", h.GenerateArithmetic)
		r.Post("/spelling", h.GenerateSpelling)
		r.Post("/poetry", h.GeneratePoetry)
		r.Post("/sequence", h.GenerateSequence)
	})

	// Transformations.
	r.Post("/transform/random-basic", h.TransformRandomBasic)

	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
