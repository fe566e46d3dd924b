package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snarg/drive-transcriber/internal/api"
	"github.com/snarg/drive-transcriber/internal/config"
	"github.com/snarg/drive-transcriber/internal/metrics"
	"github.com/snarg/drive-transcriber/internal/storage"
	"github.com/spf13/cobra"
)

var httpAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddrFlag, "listen", "", "HTTP listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := loadConfig(config.Overrides{HTTPAddr: httpAddrFlag})
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)
	log.Info().Str("version", version).Msg("drive-transcriber starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.close()

	a.runner.Start()

	pruner := storage.NewScratchPruner(a.scratch, cfg.ScratchRetention, log)
	pruner.Start()
	defer pruner.Stop()

	if a.mqtt != nil {
		prometheus.MustRegister(metrics.NewCollector(a.runner, a.mqtt))
	} else {
		prometheus.MustRegister(metrics.NewCollector(a.runner, nil))
	}

	opts := api.ServerOptions{
		Config:            cfg,
		Jobs:              a.runner,
		FFmpegAvailable:   a.ffmpegAvailable,
		StagingConfigured: a.stagingConfigured,
		Version:           version,
		StartTime:         startTime,
		Log:               log.With().Str("component", "http").Logger(),
	}
	if a.mqtt != nil {
		opts.MQTT = a.mqtt
	}
	srv := api.NewServer(opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	// In-flight jobs run to completion and deliver their outcome.
	log.Info().Int64("in_flight", a.runner.InFlight()).Msg("waiting for running jobs")
	a.runner.Stop()

	log.Info().Msg("drive-transcriber stopped")
	return nil
}
