package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/akthammomani/maestro-finder/internal/pipeline"
)

// Config holds server configuration
type Config struct {
	Port     int
	Pipeline pipeline.Config
}

// Server is the HTTP server
type Server struct {
	config Config
	router *chi.Mux
	logger *slog.Logger
	jobs   *JobManager
}

// New creates a new server. The classifier is loaded by the caller and
// shared read-only across requests.
func New(cfg Config, classifier pipeline.Predictor) *Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		jobs:   NewJobManager(classifier, cfg.Pipeline, logger),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler)

	r.Get("/health", s.handleHealth)
	r.Get("/labels", s.handleLabels)

	r.Post("/predict", s.handlePredict)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/result/{id}", s.handleResult)
}

// Run starts the server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long for SSE
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		s.logger.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	s.logger.Info("server starting", slog.Int("port", s.config.Port))

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
