package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dd0wney/agrorisk/pkg/analysis"
	"github.com/dd0wney/agrorisk/pkg/api"
	"github.com/dd0wney/agrorisk/pkg/config"
	"github.com/dd0wney/agrorisk/pkg/health"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
	"github.com/dd0wney/agrorisk/pkg/server"
	"github.com/dd0wney/agrorisk/pkg/source"
)

const maxGoroutines = 10000

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before environment overrides")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "agrorisk-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	logging.SetDefaultLogger(logger)
	logger.Info("agrorisk server starting",
		logging.String("addr", cfg.Server.Addr),
		logging.String("source", cfg.Source.Kind),
		logging.Duration("analysis_timeout", cfg.Analysis.Timeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("closing source failed", logging.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	svc := analysis.NewService(src, cfg.Analysis.ServiceConfig(), logger, reg)

	hc := health.NewHealthChecker(health.DefaultCheckTimeout)
	hc.RegisterReadinessCheck("source", health.SourceCheck(src))
	hc.RegisterLivenessCheck("goroutines", health.GoroutineCheck(maxGoroutines))
	hc.RegisterCheck("memory", health.MemoryCheck(health.RuntimeMemory))

	apiServer := api.NewServer(svc, hc, reg, logger, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	gs := server.NewGracefulServer(apiServer.Handler(), server.Options{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		level := logging.ParseLevel(next.Logging.Level)
		logger.SetLevel(level)
		logger.Info("log level reloaded", logging.String("level", level.String()))
		return nil
	})

	return gs.Run(ctx)
}

func openSource(ctx context.Context, cfg config.SourceConfig, logger logging.Logger) (source.Source, error) {
	switch cfg.Kind {
	case config.SourcePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pg, err := source.NewPGSource(connectCtx, cfg.PGConfig())
		if err != nil {
			return nil, err
		}
		if cfg.EnsureSchema {
			if err := pg.EnsureSchema(connectCtx); err != nil {
				pg.Close()
				return nil, err
			}
			logger.Info("database schema ensured")
		}
		return pg, nil
	default:
		fs, err := source.NewFileSource(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info("serving snapshots from directory", logging.String("data_dir", cfg.DataDir))
		return fs, nil
	}
}
