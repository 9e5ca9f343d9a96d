// Package server exposes the gate, the auditor and the capability advisor
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dockersentinel/internal/capabilities"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/gate"
	sentinelmiddleware "dockersentinel/internal/server/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; Dockerfiles and manifests are small.
const maxBodyBytes = 1 << 20

type Dependencies struct {
	Engine       *engine.Engine
	Gate         *gate.Gate
	Capabilities *capabilities.Catalog
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := NewRouter(logger, config.Dependencies)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func NewRouter(logger zerolog.Logger, deps Dependencies) *chi.Mux {
	h := &handler{deps: deps}

	router := chi.NewRouter()
	router.Use(sentinelmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.health)
	router.Route("/v1", func(r chi.Router) {
		r.Post("/gate", h.gate)
		r.Post("/audit", h.audit)
		r.Get("/rules", h.listRules)
		r.Get("/capabilities", h.listCapabilities)
		r.Get("/capabilities/{appType}", h.getCapabilities)
	})
	return router
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
