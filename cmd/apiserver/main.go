// Command apiserver runs the GrantScope HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/GrantScope/internal/bootstrap"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/redis"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/GrantScope/internal/interfaces/http"
	"github.com/turtacn/GrantScope/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("apiserver exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrationPath != "" {
		migrator := postgres.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationPath, logger)
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	backends, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	health := handlers.NewHealthHandler(logger)
	health.AddCheck("postgres", pingFunc(backends.Postgres.HealthCheck))
	if backends.Redis != nil {
		health.AddCheck("redis", backends.Redis)
	}

	var searcher handlers.GrantSearcher
	if backends.Searcher != nil {
		searcher = backends.Searcher
	}

	analysis := handlers.NewAnalysisHandler(backends.Orgs, backends.History, backends.Analyzer, logger)
	if backends.Redis != nil {
		analysis.SetCache(redis.NewCache(backends.Redis, logger))
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		GrantHandler:    handlers.NewGrantHandler(backends.Grants, logger),
		ProfileHandler:  handlers.NewProfileHandler(backends.Orgs, logger),
		MatchHandler:    handlers.NewMatchHandler(backends.Orgs, backends.Grants, backends.Matcher, backends.Metrics, logger),
		PredictHandler:  handlers.NewPredictHandler(backends.Orgs, backends.Grants, backends.History, backends.Predictor, backends.Metrics, logger),
		AnalysisHandler: analysis,
		SearchHandler:   handlers.NewSearchHandler(searcher, logger),
		HealthHandler:   health,
		Logger:          logger,
		Metrics:         backends.Metrics,
		Mode:            cfg.Server.Mode,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("apiserver started", logging.Int("port", cfg.Server.Port))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return srv.Stop(context.Background())
}

// pingFunc adapts a plain health-check function to the handler's Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("grantscope.yaml"); err == nil {
		return config.Load("grantscope.yaml")
	}
	return config.LoadFromEnv()
}
