// Package server assembles the VoiceScript API: database, session
// store, transcription client, optional audio archival and domain
// events, and the chi routing tree.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/voicescript/apiserver/config"
	"github.com/voicescript/apiserver/internal/db"
	"github.com/voicescript/apiserver/internal/events"
	"github.com/voicescript/apiserver/internal/handlers"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
	"github.com/voicescript/apiserver/internal/storage"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/internal/transcribe"
)

// Server wraps the HTTP server and its long-lived dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
	logger     *slog.Logger
}

// New constructs a fully wired Server from configuration.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	archive, err := newArchive(ctx, cfg)
	if err != nil {
		if publisher != nil {
			_ = publisher.Close()
		}
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	feedbackRepo := store.NewFeedbackRepository(dbConn)
	adminRepo := store.NewAdminRepository(dbConn)

	userService := services.NewUserService(userRepo, logger)
	noteService := services.NewNoteService(noteRepo, publisher, logger)
	categoryService := services.NewCategoryService(categoryRepo)
	feedbackService := services.NewFeedbackService(feedbackRepo, publisher, logger)
	adminService := services.NewAdminService(adminRepo, feedbackRepo)

	sessions := session.NewMemoryStore(time.Duration(cfg.Session.TTLHours) * time.Hour)
	cookies := session.Cookies{
		Name:   cfg.Session.CookieName,
		MaxAge: time.Duration(cfg.Session.TTLHours) * time.Hour,
		Secure: cfg.Session.Secure,
	}
	auth := handlers.NewAuth(sessions, cookies, userService)

	transcriber := transcribe.NewClient(
		cfg.Transcriber.BaseURL,
		time.Duration(cfg.Transcriber.AnalyzeTimeoutSeconds)*time.Second,
		time.Duration(cfg.Transcriber.TranscribeTimeoutSeconds)*time.Second,
	)

	authHandler := handlers.NewAuthHandler(userService, sessions, cookies)
	noteHandler := handlers.NewNoteHandler(noteService, transcriber, archive, cfg.Upload.Dir, logger)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, noteService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(adminService, userService, sessions, cookies)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, authHandler)
	router.Route("/api/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		handlers.NoteRouter(r, noteHandler)
	})
	router.Route("/api/categories", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		handlers.CategoryRouter(r, categoryHandler)
	})
	router.Route("/api/feedback", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		handlers.FeedbackRouter(r, feedbackHandler, auth.RequireAdmin)
	})
	router.Route("/api/user", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		handlers.UserRouter(r, userHandler)
	})
	router.Route("/api/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminHandler, auth.RequireAdmin)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5001
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
		// Long write timeout because the transcription proxy can hold a
		// request open for the full upstream transcription deadline.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Transcriber.TranscribeTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

// newPublisher builds the optional domain-event publisher. A blank
// backend disables publishing.
func newPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return events.NewPublisher(backend), nil
	case "pubsub":
		backend, err := events.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return events.NewPublisher(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// newArchive builds the optional recording archive. A blank backend
// disables archival.
func newArchive(ctx context.Context, cfg config.Config) (*storage.Archive, error) {
	switch cfg.Archive.Backend {
	case "":
		return nil, nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		archive := storage.NewArchive(backend)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return archive, nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		return storage.NewArchive(backend), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the server and its long-lived connections.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("failed to close event publisher", "error", err)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
