// Package app provides application-level wiring and dependency injection
// for the semlake server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"semlake/internal/api"
	"semlake/internal/config"
	"semlake/internal/db/repository"
	"semlake/internal/declarative"
	"semlake/internal/engine"
	"semlake/internal/service/semantic"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the DuckDB connection.
type Deps struct {
	Cfg     *config.Config
	DuckDB  *sql.DB
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Semantic *semantic.Service
	Handler  http.Handler

	cfg    *config.Config
	logger *slog.Logger
}

// New wires repositories, services, and the HTTP handler from the provided
// deps. It restores persisted dataset registrations and applies any
// declarative dataset files before returning.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	datasetRepo := repository.NewDatasetRepo(deps.WriteDB, deps.ReadDB)
	registry := semantic.NewRegistry()

	svc := semantic.NewService(registry, datasetRepo, deps.Logger.With("component", "semantic"))
	if deps.DuckDB != nil {
		svc.SetQueryExecutor(engine.NewExecutor(deps.DuckDB))
	}

	if err := svc.LoadPersisted(ctx); err != nil {
		return nil, err
	}

	if cfg.DatasetsDir != "" {
		datasets, err := declarative.LoadDirectory(cfg.DatasetsDir)
		if err != nil {
			return nil, fmt.Errorf("load declarative datasets: %w", err)
		}
		for _, ds := range datasets {
			if _, err := svc.RegisterDataset(ctx, ds.Name, ds.Definition); err != nil {
				return nil, fmt.Errorf("register declarative dataset %q (%s): %w", ds.Name, ds.Source, err)
			}
		}
	}

	handler := api.NewRouter(
		api.NewHandler(svc, deps.Logger.With("component", "api")),
		api.RouterOptions{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitRPS:       cfg.RateLimitRPS,
			RateLimitBurst:     cfg.RateLimitBurst,
		},
	)

	return &App{
		Semantic: svc,
		Handler:  handler,
		cfg:      cfg,
		logger:   deps.Logger,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP API listening", "addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
