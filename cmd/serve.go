package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/config"
	"github.com/catht823/journal-club-calendar-bot/pkg/buildinfo"
	"github.com/catht823/journal-club-calendar-bot/pkg/logging"
	"github.com/catht823/journal-club-calendar-bot/pkg/observability"
	"github.com/catht823/journal-club-calendar-bot/pkg/storage"
)

// serveShutdownTimeout bounds how long the HTTP server drains on shutdown.
const serveShutdownTimeout = 5 * time.Second

// ServeCommandDeps holds the dependencies for the serve command.
type ServeCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	OpenRepo   func(context.Context, *config.Config, logging.Logger) (storage.Repository, error)
	Metrics    *observability.Metrics
}

// DefaultServeDeps returns the default dependencies for production use.
func DefaultServeDeps() *ServeCommandDeps {
	return &ServeCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenRepo:   storage.Open,
	}
}

// NewServeCommand creates the serve command.
func NewServeCommand(deps *ServeCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultServeDeps()
	}

	var (
		dir      string
		interval time.Duration
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot as a long-lived service",
		Long: `Serve runs the processing loop continuously and exposes an HTTP listener
with /healthz, /metrics (Prometheus) and /version endpoints.

The loop polls the message directory at the configured interval; SIGINT or
SIGTERM stops it cleanly.`,
		Example: `  jcbot serve
  jcbot serve --interval 1m --metrics-address :9190`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if dir != "" {
				cfg.MessageDir = dir
			}
			if cfg.MessageDir == "" {
				return fmt.Errorf("no message directory configured (set --dir or message_dir)")
			}
			if interval == 0 {
				interval = cfg.PollInterval
			}
			if addr != "" {
				cfg.Metrics.Address = addr
			}

			log := newLogger(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, err := deps.OpenRepo(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer repo.Close()

			metrics := deps.Metrics
			if metrics == nil && cfg.Metrics.Enabled {
				metrics = observability.DefaultMetrics()
			}

			proc, err := buildProcessor(cfg, log, repo, nil, metrics)
			if err != nil {
				return err
			}

			srv := newHTTPServer(cfg.Metrics.Address)
			errCh := make(chan error, 1)
			go func() {
				log.Info("http listener started", logging.F("address", cfg.Metrics.Address))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			log.Info("service started",
				logging.F("dir", cfg.MessageDir),
				logging.F("interval", interval.String()),
				logging.F("version", buildinfo.String()))

			runErr := proc.Run(ctx, interval)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown failed", logging.Err(err))
			}

			select {
			case err := <-errCh:
				return fmt.Errorf("http listener: %w", err)
			default:
			}

			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Message directory (overrides message_dir)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (defaults to poll_interval)")
	cmd.Flags().StringVar(&addr, "metrics-address", "", "HTTP listen address (defaults to metrics.address)")

	return cmd
}

// newHTTPServer builds the operational HTTP listener.
func newHTTPServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/version", buildinfo.Handler("jcbot"))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
