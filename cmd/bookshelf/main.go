package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pollex.nl/bookshelf"
	"pollex.nl/bookshelf/config"
	"pollex.nl/bookshelf/graph"
	"pollex.nl/bookshelf/seed"
	"pollex.nl/bookshelf/server"
	"pollex.nl/bookshelf/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:], os.Getenv); err != nil {
		stop()
		var exitErr *config.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled.
func run(ctx context.Context, outW io.Writer, args []string, getenv func(string) string) error {
	cfg, shouldExit, err := config.Parse(args, getenv, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	handler, closeStore, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "graphiql", cfg.GraphiQL)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}

// setup opens and seeds the store and builds the HTTP handler. The returned
// func closes the store.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	svc := bookshelf.NewService(backend).
		WithLogger(logger).
		WithStrictEdits(cfg.StrictEdits)

	data := seed.Default()
	if cfg.SeedPath != "" {
		if data, err = seed.Load(cfg.SeedPath); err != nil {
			return nil, nil, errors.Join(err, backend.Close())
		}
	}
	if err := seed.Apply(ctx, svc, data); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to seed store: %w", err), backend.Close())
	}
	logger.Debug("seeded store", "authors", len(data.Authors), "books", len(data.Books))

	library, err := graph.NewSchema(svc)
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}
	hello, err := graph.NewHelloSchema()
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}

	return server.New(server.Options{
		Library:  library,
		Hello:    hello,
		GraphiQL: cfg.GraphiQL,
		Logger:   logger,
	}), backend.Close, nil
}
