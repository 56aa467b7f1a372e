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

	"github.com/spf13/cobra"
	"github.com/swellcycle/surfboard-gwp/internal/archive"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
	"github.com/swellcycle/surfboard-gwp/internal/demo"
	"github.com/swellcycle/surfboard-gwp/internal/server"
	"github.com/swellcycle/surfboard-gwp/internal/store"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var (
		listen     string
		storePath  string
		archiveURL string
		daylight   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator dashboard, its api and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("listen") {
				opts.cfg.Listen = listen
			}
			if flags.Changed("store.path") {
				opts.cfg.Store.Path = storePath
			}
			if flags.Changed("archive.url") {
				opts.cfg.Archive.URL = archiveURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, daylight)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&listen, "listen", "0.0.0.0:2922", "addr to listen to")
	flags.StringVar(&storePath, "store.path", "", "sqlite database keeping saved assessments")
	flags.StringVar(&archiveURL, "archive.url", "", "s3://bucket/prefix, gs://bucket/prefix or file:///dir receiving every report")
	flags.BoolVar(&daylight, "demo.daylight", false, "make the solar share of the metrics baseline follow the hour of the day")
	return cmd
}

// runServe serves http until ctx is done, then shuts the server down gracefully.
func runServe(ctx context.Context, opts *options, daylight bool) error {
	cfg := opts.cfg

	evaluator, err := opts.evaluator()
	if err != nil {
		return err
	}

	sourceOpts := []demo.Option{}
	if daylight {
		sourceOpts = append(sourceOpts, demo.WithDaylight())
	}
	serverOpts := []server.Option{
		server.WithMetricsSource(demo.NewSource(evaluator, sourceOpts...)),
	}

	if cfg.Store.Path != "" {
		history, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer history.Close()
		serverOpts = append(serverOpts, server.WithHistory(history))
		slog.Info("assessment history enabled", "path", cfg.Store.Path)
	}

	if cfg.Archive.URL != "" {
		archiveStore, err := archive.Open(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		if closer, ok := archiveStore.(io.Closer); ok {
			defer closer.Close()
		}
		serverOpts = append(serverOpts, server.WithArchive(archiveStore))
		slog.Info("report archive enabled", "url", cfg.Archive.URL)
	}

	errg, errgctx := errgroup.WithContext(ctx)

	limiter := auth.NewLoginLimiter(errgctx, cfg.Auth.LoginRate)
	srv, err := server.New(evaluator, auth.New(cfg.Auth), limiter, serverOpts...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errg.Go(func() error {
		slog.Info("starting surfboard gwp calculator", "listen", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start surfboard gwp calculator: %w", err)
		}
		return nil
	})

	errg.Go(func() error {
		<-errgctx.Done()
		slog.Info("shutting down surfboard gwp calculator")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	return errg.Wait()
}
