package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/repliq-app/repliq/internal/auth"
	"github.com/repliq-app/repliq/internal/cdn"
	"github.com/repliq-app/repliq/internal/handlers"
	"github.com/repliq-app/repliq/internal/matching"
	"github.com/repliq-app/repliq/internal/ocr"
	"github.com/repliq-app/repliq/internal/requests"
)

func newServeCmd() *cobra.Command {
	var (
		port          string
		sweepInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the request API server",
		Long: `Starts the Repliq API on the specified port.

Alongside the API, a background sweep periodically matches pending requests
against the catalog by their detected title and repairs library grants lost
to partial approval failures.`,
		Example: `  # Start server on default port 8484
  repliq serve

  # Start server on custom port, sweep every 10s
  repliq serve --port 3000 --sweep-interval 10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			reqSvc := requests.NewService(st, ocr.NewService())
			matcher := matching.New(st)
			authorizer := auth.NewAuthorizer(auth.NewHTTPVerifier(), st)
			uploader := cdn.NewUploaderFromEnv()
			if uploader == nil {
				slog.Info("Cover uploads disabled (no CDN configured)")
			}

			handler := handlers.New(st, authorizer, reqSvc, matcher, uploader)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Background sweep: automatic matching + grant reconciliation.
			sweepCtx, stopSweep := context.WithCancel(ctx)
			defer stopSweep()
			go runSweep(sweepCtx, matcher, reqSvc, sweepInterval)

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Repliq API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8484", "Port to listen on")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 30*time.Second, "Interval between matching/reconciliation sweeps")

	return cmd
}

func runSweep(ctx context.Context, matcher *matching.Matcher, reqSvc *requests.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if matched, err := matcher.Sweep(ctx); err != nil {
				slog.Error("Matching sweep failed", "err", err)
			} else if matched > 0 {
				slog.Info("Matching sweep complete", "matched", matched)
			}
			if repaired, err := reqSvc.ReconcileGrants(ctx); err != nil {
				slog.Error("Grant reconciliation failed", "err", err)
			} else if repaired > 0 {
				slog.Info("Grant reconciliation complete", "repaired", repaired)
			}
		}
	}
}
