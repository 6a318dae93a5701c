package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/studybuddy/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/studybuddy/internal/api/middlewares"
	"github.com/markdave123-py/studybuddy/internal/config"
	"github.com/markdave123-py/studybuddy/internal/core/logger"
)

// requestTimeout covers OCR of a multi-page scan plus one completion call.
const requestTimeout = 10 * time.Minute

// Deps are the services behind the HTTP API.
type Deps struct {
	Users     handlers.UserAccounts
	Materials handlers.Materials
	Study     handlers.Study
	Progress  handlers.Progress
	Tutor     handlers.Tutor
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *logger.Logger, deps Deps) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, log, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: log}
}

func NewRouter(cfg *config.Config, log *logger.Logger, deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Users, cfg.JWTSecret, log)
	materialHandler := handlers.NewMaterialHandler(deps.Materials, cfg.MaxUploadBytes, log)
	genHandler := handlers.NewGenerationHandler(deps.Study, log)
	progressHandler := handlers.NewProgressHandler(deps.Progress, log)
	tutorHandler := handlers.NewTutorHandler(deps.Tutor, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Route("/materials", func(m chi.Router) {
				m.Post("/upload", materialHandler.Upload)
				m.Get("/", materialHandler.List)
				m.Get("/{materialId}", materialHandler.Get)
				m.Delete("/{materialId}", materialHandler.Delete)
				m.Get("/{materialId}/quizzes", genHandler.ListQuizzes)
				m.Get("/{materialId}/flashcards", genHandler.ListFlashcards)
			})

			protected.Route("/generate", func(g chi.Router) {
				g.Post("/translate", genHandler.TranslateText)
				g.Post("/{materialId}/summary", genHandler.Summary)
				g.Post("/{materialId}/quiz", genHandler.Quiz)
				g.Post("/{materialId}/flashcards", genHandler.Flashcards)
				g.Post("/{materialId}/translate", genHandler.TranslateMaterial)
			})

			protected.Route("/progress", func(p chi.Router) {
				p.Post("/log-quiz", progressHandler.LogQuiz)
				p.Post("/update-streak", progressHandler.UpdateStreak)
				p.Get("/dashboard", progressHandler.Dashboard)
			})

			protected.Post("/tutor/{materialId}/ask", tutorHandler.Ask)
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
