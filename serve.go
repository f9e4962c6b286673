package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	apihttp "railfleet-sim/internal/api/http"
	"railfleet-sim/internal/audit"
	"railfleet-sim/internal/auth"
	"railfleet-sim/internal/observability/metrics"
	"railfleet-sim/internal/simulation/application"
	simmetrics "railfleet-sim/internal/simulation/metrics"
)

func newServeCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := application.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
			}
			frames, _ := cmd.Flags().GetBool("store-frames")
			return runServe(cmd.Context(), cfg, frames, logger)
		},
	}
	cmd.Flags().String("addr", "", "Listen address")
	cmd.Flags().Bool("store-frames", false, "Persist sensor frames with each run")
	return cmd
}

func runServe(ctx context.Context, cfg application.Config, frames bool, logger *log.Logger) error {
	if cfg.HTTP.JWTSecret == "" && !cfg.HTTP.AuthDisabled {
		return errors.New("RAILSIM_JWT_SECRET is required")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, db, err := openRepository(ctx, cfg.Storage, frames)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, logger)

	var auditLog audit.Logger = audit.NewLogWriter(logger)
	if cfg.Storage.Driver == "postgres" {
		auditRepo := audit.NewRepository(db)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		auditLog = auditRepo
	}

	runner, err := newFleetRunner(cfg, logger, simmetrics.New(nil))
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	apihttp.Routes(mux,
		apihttp.NewSimulationHandler(runner, repo, cfg.HTTP.MaxWagons,
			apihttp.WithAudit(auditLog), apihttp.WithLogger(logger), apihttp.WithDefaultSeed(cfg.Seed)),
		apihttp.NewFailuresHandler(repo, apihttp.WithAudit(auditLog), apihttp.WithLogger(logger)))
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	if !cfg.HTTP.AuthDisabled {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.HTTP.JWTSecret), policy, logger).Wrap(mux)
	} else {
		logger.Printf("event=auth_disabled addr=%s", cfg.HTTP.Addr)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           loggingMiddleware(handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("event=http_listen addr=%s storage=%s", cfg.HTTP.Addr, cfg.Storage.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Printf("event=http_shutdown")
	return server.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
