package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger   *slog.Logger
	handlers *handlers
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		handlers: &handlers{logger: logger.With("component", "rest"), gameUseCase: gameUseCase},
	}
}

// Router - wires the session routes.
func (that *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", that.handlers.ping)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", that.handlers.createSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", that.handlers.getSession)
			r.Delete("/", that.handlers.endSession)
			r.Post("/cells", that.handlers.chooseCell)
			r.Post("/ai-move", that.handlers.requestAIMove)
			r.Post("/reset", that.handlers.reset)
			r.Post("/mode", that.handlers.toggleMode)
		})
	})

	return r
}

// Start - serves HTTP until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
