package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/miyabi-lab/encore/internal/adapters/http/api"
	"github.com/miyabi-lab/encore/internal/adapters/http/swagger"
	app "github.com/miyabi-lab/encore/internal/app"
	"github.com/miyabi-lab/encore/internal/config"
	"github.com/miyabi-lab/encore/pkg/logger"
	"github.com/miyabi-lab/encore/pkg/metrics"
)

// HTTP server and background updater timings.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("logger init: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "fatal", logger.Error(err))
		os.Exit(1)
	}
}

// run boots the engine: config, service, background metric updaters, and the
// HTTP surface. It returns once a shutdown signal has been handled.
func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(serviceOptions(cfg)...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go runSystemMetricsUpdater(ctx)
	go runServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logger.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http shutdown", logger.Error(err))
	}
	log.Info(ctx, "stopped")
	return nil
}

// serviceOptions maps the loaded config onto service options.
func serviceOptions(cfg *config.Config) []app.Option {
	opts := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithShardCount(cfg.ShardCount),
		app.WithAuditQueueSize(cfg.AuditQueueSize),
		app.WithAuditWriterCount(cfg.AuditWriterCount),
		app.WithGuardSize(cfg.GuardSize),
	}
	if cfg.StoreBackend == config.StorePostgres {
		opts = append(opts, app.WithPostgres(cfg.PostgresDSN))
	}
	return opts
}

// runSystemMetricsUpdater periodically samples the Go runtime into the
// system gauges.
func runSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sampleRuntime()
		}
	}
}

// runServiceMetricsUpdater keeps the queue and worker gauges fresh between
// requests. GetStats refreshes them as a side effect.
func runServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

func sampleRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		// Average pause over the process lifetime.
		metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond)
	}
}
