package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ticketdrop/ticketdrop/internal/config"
	"github.com/ticketdrop/ticketdrop/internal/creds"
	"github.com/ticketdrop/ticketdrop/internal/drive"
	"github.com/ticketdrop/ticketdrop/internal/history"
	"github.com/ticketdrop/ticketdrop/internal/server"
	"github.com/ticketdrop/ticketdrop/internal/tracker"
	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

// shutdownTimeout bounds graceful HTTP shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var flagPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = flagPort
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", config.DefaultPort, "HTTP listen port")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := buildLogger(cfg)

	provider, err := creds.NewProvider(cfg.Drive.CredentialsPath, logger)
	if err != nil {
		return err
	}

	store := drive.NewClient(
		cfg.Drive.BaseURL,
		cfg.Drive.UploadBaseURL,
		defaultHTTPClient(0), // per-stage contexts bound by the orchestrator
		provider,
		logger,
	)

	bugs := tracker.NewClient(
		cfg.Tracker.BaseURL,
		cfg.Tracker.APIKey,
		defaultHTTPClient(trackerClientTimeout),
		logger,
	)

	var recorder uploader.Recorder

	var hist server.History

	if cfg.History.DBPath != "" {
		histStore, histErr := history.NewStore(cfg.History.DBPath, logger)
		if histErr != nil {
			return histErr
		}
		defer histStore.Close()

		recorder = histStore
		hist = histStore
	}

	orchestrator := uploader.New(
		store,
		bugs,
		recorder,
		cfg.Drive.RootID,
		cfg.Drive.ChunkSizeBytes(),
		cfg.Drive.CallTimeoutDuration(),
		logger,
	)

	srv := server.New(orchestrator, hist, cfg.Server.MaxUploadSizeBytes(), logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("drive_root", cfg.Drive.RootID),
		)

		if serveErr := httpServer.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}

		return nil
	})

	g.Go(func() error {
		return provider.Watch(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
