// Command monitor runs the grant-monitoring daemon: it polls configured
// sources, persists and matches new grants, publishes events and serves
// health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/GrantScope/internal/bootstrap"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	metricsAddr := flag.String("metrics-addr", ":9091", "listen address for /healthz and /metrics")
	flag.Parse()

	cfg, cfgFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, cfgFile, logger, *metricsAddr); err != nil {
		logger.Error("monitor exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, cfgFile string, logger logging.Logger, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	if backends.Monitor == nil {
		return fmt.Errorf("no enabled sources in monitoring.sources; nothing to poll")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", backends.Metrics.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics endpoint listening", logging.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", logging.Err(err))
		}
	}()

	// Hot-reload the match threshold when the config file changes.
	if cfgFile != "" {
		go func() {
			err := config.Watch(cfgFile, func(updated *config.Config) {
				backends.Monitor.SetMinScore(updated.Monitoring.MinScore)
				logger.Info("configuration reloaded",
					logging.Float64("min_score", updated.Monitoring.MinScore))
			})
			if err != nil {
				logger.Warn("config watcher stopped", logging.Err(err))
			}
		}()
	}

	if err := backends.Monitor.LoadProfiles(ctx); err != nil {
		logger.Warn("loading organization profiles failed; matching starts empty",
			logging.Err(err))
	}

	logger.Info("monitor started",
		logging.Int("sources", len(cfg.Monitoring.Sources)),
		logging.Float64("min_score", cfg.Monitoring.MinScore))
	err = backends.Monitor.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("metrics server shutdown failed", logging.Err(serr))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("monitor stopped")
	return nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat("grantscope.yaml"); err == nil {
		cfg, err := config.Load("grantscope.yaml")
		return cfg, "grantscope.yaml", err
	}
	cfg, err := config.LoadFromEnv()
	return cfg, "", err
}
