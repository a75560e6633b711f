package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"potager/internal/adapters/exports"
	"potager/internal/adapters/httpapi"
	"potager/internal/blob"
	"potager/internal/catalog"
	"potager/internal/core"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner REST API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	flags := cmd.Flags()
	flags.String("listen", "", "listen address (default :8001)")
	flags.String("catalog", "", "crop catalog file (.yaml or .toml)")
	flags.Bool("watch-catalog", false, "reload the catalog file when it changes")
	_ = viper.BindPFlag("listen_addr", flags.Lookup("listen"))
	_ = viper.BindPFlag("catalog.path", flags.Lookup("catalog"))
	_ = viper.BindPFlag("catalog.watch", flags.Lookup("watch-catalog"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger := rt.cfg, rt.logger
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	opts := []core.ServiceOption{core.WithLogger(logger)}
	var prom *core.PrometheusMetricsRecorder
	switch cfg.Metrics.Backend {
	case "", "prometheus":
		prom = core.NewPrometheusMetricsRecorder()
		opts = append(opts, core.WithMetricsRecorder(prom))
	case "expvar":
		opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("potager_operations")))
	default:
		return fmt.Errorf("unknown metrics backend %q", cfg.Metrics.Backend)
	}
	if cfg.TraceFile != "" {
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer f.Close()
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}
	svc := core.NewService(store, opts...)

	crops, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if _, err := svc.SyncCrops(ctx, crops); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}
	logger.Info("crop catalog loaded", "crops", len(crops), "path", cfg.Catalog.Path)
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
		go syncCatalog(ctx, svc, watcher)
	}

	blobStore, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithArchive(exports.NewArchive(blobStore)),
		httpapi.WithCORSOrigin(cfg.CORSOrigin),
	}
	if prom != nil {
		apiOpts = append(apiOpts, httpapi.WithMetrics(prom.Registry()))
	}
	var handler http.Handler = httpapi.NewServer(svc, apiOpts...)
	if prom == nil {
		mux := http.NewServeMux()
		mux.Handle("GET /debug/vars", expvar.Handler())
		mux.Handle("/", handler)
		handler = mux
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// syncCatalog pushes every successful catalog reload into the service.
func syncCatalog(ctx context.Context, svc *core.Service, w *catalog.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-w.Updates:
			if !ok {
				return
			}
			if u.Err != nil {
				rt.logger.Warn("catalog reload failed", "path", w.Path, "error", u.Err)
				continue
			}
			if _, err := svc.SyncCrops(ctx, u.Crops); err != nil {
				rt.logger.Warn("catalog sync failed", "error", err)
				continue
			}
			rt.logger.Info("crop catalog reloaded", "crops", len(u.Crops))
		}
	}
}
