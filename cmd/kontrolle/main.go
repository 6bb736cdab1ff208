package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/application"
	"github.com/example/openlibrary-kontrolle/internal/calendar"
	"github.com/example/openlibrary-kontrolle/internal/config"
	"github.com/example/openlibrary-kontrolle/internal/domain"
	httptransport "github.com/example/openlibrary-kontrolle/internal/http"
	"github.com/example/openlibrary-kontrolle/internal/logging"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
	"github.com/example/openlibrary-kontrolle/internal/persistence/github"
	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite"
	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite/migration"
	"github.com/example/openlibrary-kontrolle/internal/planning"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootstrap.Error("failed to build logger", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open document store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close document store", "error", cerr)
		}
	}()

	handler, err := newHandler(cfg, store, time.Now, logger)
	if err != nil {
		logger.Error("failed to build handlers", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.StoreTimeout*4 + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("kontrolle API listening", "addr", server.Addr, "backend", cfg.StoreBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
	logger.Info("kontrolle API stopped")
}

// openStore builds the configured backend. The returned close function is
// never nil.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.DocumentStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory document store; state is lost on exit")
		return persistence.NewMemoryStore(cfg.DocumentPath), noop, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, sqlite.Config{
			Database: migration.DefaultSQLiteConfig(cfg.SQLitePath),
			Path:     cfg.DocumentPath,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.BackendGitHub:
		store, err := github.NewWithToken(cfg.GitHubToken, &http.Client{Timeout: cfg.StoreTimeout}, github.Config{
			Owner:    cfg.GitHubOwner,
			Repo:     cfg.GitHubRepo,
			Branch:   cfg.GitHubBranch,
			Path:     cfg.DocumentPath,
			Location: cfg.Location,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func newHandler(cfg config.Config, store persistence.DocumentStore, now func() time.Time, logger *slog.Logger) (http.Handler, error) {
	roster, err := domain.NewRoster(cfg.Roster)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	repo, err := application.NewStateRepository(store, application.Options{
		Roster:       roster,
		Location:     cfg.Location,
		Now:          now,
		StoreTimeout: cfg.StoreTimeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	engine, err := planning.NewEngine(planning.DefaultRules(), cfg.Location)
	if err != nil {
		return nil, err
	}
	period := calendar.Period{Start: cfg.HolidayStart, End: cfg.HolidayEnd}

	return httptransport.NewRouter(httptransport.RouterConfig{
		State:    httptransport.NewStateHandler(repo, logger),
		Calendar: httptransport.NewCalendarHandler(repo, engine, period, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	}), nil
}
