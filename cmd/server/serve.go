package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sync on an interval and serve metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			defer log.Sync()
			log.Info("Starting booking calendar sync", "version", Version, "interval", cfg.SyncInterval.String())

			// Set up context with cancellation on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			var lastRunOK atomic.Bool
			lastRunOK.Store(true)

			// Set up HTTP server for metrics
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				if !lastRunOK.Load() {
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte("Last sync failed"))
					return
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("Healthy"))
			})

			server := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      mux,
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Info("Starting HTTP server", "port", cfg.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Runs happen on this goroutine only, so they never overlap
			syncOnce := func() {
				summary, err := a.orchestrator.Run(ctx, cfg.FetchWindow(time.Now()))
				switch {
				case err != nil && ctx.Err() == nil:
					log.Error("Sync run failed", "error", err)
					lastRunOK.Store(false)
				case summary != nil && summary.FullyFailed():
					lastRunOK.Store(false)
				default:
					lastRunOK.Store(true)
				}
			}

			syncOnce()
			ticker := time.NewTicker(cfg.SyncInterval)
			defer ticker.Stop()

		loop:
			for {
				select {
				case <-ctx.Done():
					log.Info("Shutdown signal received")
					break loop
				case err := <-serverErr:
					log.Error("HTTP server error", "error", err)
					stop()
					break loop
				case <-ticker.C:
					syncOnce()
				}
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", "error", err)
			}

			log.Info("Booking calendar sync stopped")
			return nil
		},
	}

	cmd.Flags().Duration("interval", 0, "time between sync runs (default SYNC_INTERVAL)")
	return cmd
}
