package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/timgluz/soilflag/catalog"
	"github.com/timgluz/soilflag/config"
	"github.com/timgluz/soilflag/flagging"
	"github.com/timgluz/soilflag/flagstore"
	applog "github.com/timgluz/soilflag/log"
	"github.com/timgluz/soilflag/metrics"
	"github.com/timgluz/soilflag/onfarm"
	"github.com/timgluz/soilflag/oracle"
)

// appComponent holds the stateful components shared by the subcommands.
type appComponent struct {
	config    *config.Config
	frequency float64

	flagRepository flagstore.Repository
	provider       onfarm.Provider
	oracle         flagging.Oracle
	catalog        *catalog.CSVRepository
	recorder       *metrics.Recorder

	logger *slog.Logger
}

func loadAppComponent(path string) (*appComponent, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := applog.NewLogger(cfg.Logging.Level, cfg.Logging.Format).With("component", "soilflag")
	logger.Debug("Configuration loaded", "config", cfg.Redacted())

	return newAppComponent(cfg, logger)
}

func newAppComponent(cfg *config.Config, logger *slog.Logger) (*appComponent, error) {
	frequency, err := cfg.Frequency()
	if err != nil {
		return nil, err
	}

	repo, err := newFlagRepository(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	flagOracle, err := newOracle(cfg.Oracle, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.API.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), cfg.API.Burst)
	}
	httpClient := &http.Client{Timeout: cfg.API.Timeout}

	return &appComponent{
		config:         cfg,
		frequency:      frequency,
		flagRepository: repo,
		provider:       onfarm.NewHTTPProvider(cfg.API.BaseURL, cfg.API.Key, httpClient, limiter, logger.With("component", "onfarm")),
		oracle:         flagOracle,
		catalog:        catalog.NewCSVRepository(cfg.Catalog.Path, logger),
		recorder:       metrics.NewRecorder(),
		logger:         logger,
	}, nil
}

func newFlagRepository(cfg config.StoreConfig, logger *slog.Logger) (flagstore.Repository, error) {
	switch cfg.Kind {
	case config.StoreSQLite:
		db, err := flagstore.NewSqliteDB(cfg.Path)
		if err != nil {
			logger.Error("Failed to open flag database", "path", cfg.Path, "error", err)
			return nil, err
		}
		repo, err := flagstore.NewSqlRepository(db, logger.With("component", "flagstore"))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case config.StoreCSV, "":
		return flagstore.NewCSVRepository(cfg.Path, logger.With("component", "flagstore")), nil
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
}

func newOracle(cfg config.OracleConfig, logger *slog.Logger) (flagging.Oracle, error) {
	oracleLogger := logger.With("component", "oracle")

	switch cfg.Kind {
	case config.OracleExec:
		execOracle, err := oracle.NewExec(cfg.Command, cfg.Args, cfg.Timeout, oracleLogger)
		if err != nil {
			return nil, err
		}
		return execOracle, nil
	case config.OracleThreshold, "":
		threshold, err := oracle.NewThreshold(oracle.ThresholdOptions{
			Minimum:    cfg.Minimum,
			Maximum:    cfg.Maximum,
			SpikeRatio: cfg.SpikeRatio,
		}, oracleLogger)
		if err != nil {
			return nil, err
		}
		return threshold, nil
	default:
		return nil, fmt.Errorf("%w: unknown oracle kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
}

// IsReady checks if all components are ready.
func (c *appComponent) IsReady() bool {
	if c.logger == nil {
		fmt.Println("Logger of appComponent is not initialized")
		return false
	}

	if c.flagRepository == nil || !c.flagRepository.IsReady() {
		c.logger.Error("Flag repository is not ready")
		return false
	}

	if c.provider == nil || !c.provider.IsReady() {
		c.logger.Error("On-farm provider is not ready")
		return false
	}

	if c.oracle == nil {
		c.logger.Error("Oracle is not initialized")
		return false
	}

	return true
}

func (c *appComponent) entries(ctx context.Context) (catalog.Entries, error) {
	entries, err := c.catalog.List(ctx)
	if err != nil {
		c.logger.Error("Failed to load catalog", "error", err)
		return nil, err
	}
	return entries, nil
}

func (c *appComponent) Close() {
	if c.flagRepository != nil {
		if err := c.flagRepository.Close(); err != nil {
			c.logger.Error("Failed to close flag repository", "error", err)
		}
		c.flagRepository = nil
	}

	if c.provider != nil {
		if err := c.provider.Close(); err != nil {
			c.logger.Error("Failed to close provider", "error", err)
		}
		c.provider = nil
	}
}
