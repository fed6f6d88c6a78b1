package app

import (
	"fmt"

	"github.com/genrelay/genrelay/config"
	"github.com/genrelay/genrelay/services/health"
	"github.com/genrelay/genrelay/services/rotation"
	"github.com/genrelay/genrelay/services/routing"
	"github.com/genrelay/genrelay/services/workers"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Routing core
	CredentialRotator *rotation.CredentialRotator
	HealthTracker     *health.Tracker
	Selector          *routing.Selector
	WorkerClient      *workers.Client
	Router            *routing.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.CredentialRotator = rotation.NewCredentialRotator(cfg.Credentials.APIKeys, logger)
	deps.HealthTracker = health.NewTracker(cfg.Routing.UnhealthyWindow, logger)

	selector, err := routing.NewSelector(cfg.Workers.URLs, deps.HealthTracker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend selector: %w", err)
	}
	deps.Selector = selector

	deps.WorkerClient = workers.NewClient(deps.CredentialRotator, cfg.Routing.CallTimeout, logger)

	deps.Router = routing.NewService(routing.Config{
		MaxAttempts:     cfg.Routing.MaxAttempts,
		CallTimeout:     cfg.Routing.CallTimeout,
		RetryWait:       cfg.Routing.RetryWait,
		FallbackBaseURL: cfg.Routing.FallbackBaseURL,
		MaxPromptLength: cfg.Routing.MaxPromptLength,
	}, deps.Selector, deps.WorkerClient, logger)

	logger.Info("all dependencies initialized",
		zap.Int("worker_pool", len(cfg.Workers.URLs)),
		zap.Int("credential_pool", deps.CredentialRotator.Size()),
		zap.Int("max_attempts", cfg.Routing.MaxAttempts))
	return deps, nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close() error {
	d.Logger.Info("shutting down dependencies")

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
	return nil
}
