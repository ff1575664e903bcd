package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/privata-labs/privata/config"
	"github.com/privata-labs/privata/loader"
	"github.com/privata-labs/privata/repositories"
	"github.com/privata-labs/privata/repositories/sqlite"
	"github.com/privata-labs/privata/services/agent/openai"
	"github.com/privata-labs/privata/services/pipeline"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Store   repositories.AnalysisStore
	Loader  *loader.CSVLoader
	Manager *pipeline.Manager
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	store, err := sqlite.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis store: %w", err)
	}
	deps.Store = store
	logger.Info("analysis store initialized", zap.String("path", cfg.Storage.Path))

	deps.Loader = loader.NewCSVLoader(logger)

	caller := openai.NewAdapter(cfg.Providers.OpenAI)
	if cfg.Providers.OpenAI.APIKey == "" {
		logger.Warn("no provider API key configured")
	}
	deps.Manager = pipeline.NewManager(cfg.Pipeline, caller, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close analysis store: %w", err))
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
