// Package server wires repo-finder together and runs the HTTP server.
//
// New is the composition root: it opens the database, builds the GitHub
// gateway, the repository service, the loader and the session manager, and
// hands them to the handlers. Nothing else in the code base constructs
// dependencies.
//
//	sqlite.DB ──► session.Manager ◄── effects.RepoLoader ◄── service.RepoService ◄── gateway.GitHubGateway
//	                    │
//	                    ▼
//	        handler.HomeHandler / handler.APIHandler
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/repo-finder/internal/auth"
	"github.com/sakif/repo-finder/internal/config"
	"github.com/sakif/repo-finder/internal/effects"
	"github.com/sakif/repo-finder/internal/gateway"
	"github.com/sakif/repo-finder/internal/handler"
	"github.com/sakif/repo-finder/internal/middleware"
	sqliteRepo "github.com/sakif/repo-finder/internal/repository/sqlite"
	"github.com/sakif/repo-finder/internal/service"
	"github.com/sakif/repo-finder/internal/session"
	"github.com/sakif/repo-finder/web"
)

// Server owns the router and every long-lived dependency.
//
// The database, the loader's base context and the session sweeper are all
// released by Close, which Start calls on shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	loader   *effects.RepoLoader
	sessions *session.Manager

	// cancel stops in-flight loads and the session sweeper.
	cancel context.CancelFunc
}

// New builds a Server from cfg. cfg must have passed Validate.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	github, err := gateway.NewGitHubGateway(gateway.Options{
		Token:             cfg.GitHubToken,
		BaseURL:           cfg.GitHubAPIURL,
		MaxRateLimitSleep: cfg.RateLimitWait,
	}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating GitHub gateway: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.SessionSecret, 0)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	repos := service.NewRepoService(github, logger)
	loader := effects.NewRepoLoader(ctx, repos, cfg.FetchTimeout, logger)
	// A persisted session is useless once its cookie has expired.
	sessions := session.NewManager(db, cfg.SessionTTL, logger, loader.Middleware()).
		WithRetention(tokens.Lifetime())

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		loader:   loader,
		sessions: sessions,
		cancel:   cancel,
	}

	if err := s.setupRoutes(tokens); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	go sessions.Run(ctx, sweepInterval(cfg.SessionTTL))

	return s, nil
}

// setupRoutes registers middleware and routes.
//
//	GET  /                  home page
//	GET  /features          features page
//	POST /actions/username  username input edit (form)
//	POST /actions/submit    username form submit (form)
//	POST /actions/navigate  route buttons (form)
//	POST /actions/features  "Features" button (form)
//	GET  /api/state         home page props (JSON)
//	POST /api/actions       dispatch a page action (JSON)
//	GET  /healthz           database reachability
//	GET  /static/*          embedded assets
//
// Middleware order matters: the request logger runs inside Sessions so it
// can tag each line with the session ID.
func (s *Server) setupRoutes(tokens *auth.TokenService) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", handler.NewHealthHandler(s.db, s.logger).HandleHealth)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	homeHandler, err := handler.NewHomeHandler(s.sessions, s.logger)
	if err != nil {
		return fmt.Errorf("creating home handler: %w", err)
	}
	apiHandler := handler.NewAPIHandler(s.sessions, s.logger)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Sessions(tokens, s.logger))
		r.Use(middleware.Logger(s.logger))

		r.Get("/", homeHandler.HandleHome)
		r.Get("/features", homeHandler.HandleFeatures)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/username", homeHandler.HandleUsername)
			r.Post("/submit", homeHandler.HandleSubmit)
			r.Post("/navigate", homeHandler.HandleNavigate)
			r.Post("/features", homeHandler.HandleOpenFeatures)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", apiHandler.HandleState)
			r.Post("/actions", apiHandler.HandleAction)
		})
	})

	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close cancels in-flight loads, waits for them to report back and closes
// the database.
func (s *Server) Close() error {
	s.cancel()
	s.loader.Wait()
	return s.db.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish, then Close.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("github_token", s.config.GitHubToken != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// sweepInterval checks for idle stores a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if interval := ttl / 4; interval > time.Second {
		return interval
	}
	return time.Second
}
