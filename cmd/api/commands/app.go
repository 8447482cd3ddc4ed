package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/recurring/internal/adapters/cache"
	"github.com/taskmaster/recurring/internal/adapters/repository"
	"github.com/taskmaster/recurring/internal/application/services"
	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/infrastructure/database"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/infrastructure/metrics"
	"github.com/taskmaster/recurring/internal/ports"
)

// app is the wired object graph shared by the commands
type app struct {
	config     *config.Config
	logger     *logger.Logger
	db         *database.DB
	redis      *redis.Client
	registry   *prometheus.Registry
	templates  ports.TemplateRepository
	recurrence *services.RecurrenceService
	generation *services.GenerationService
}

func newApp(ctx context.Context, withRedis bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		config:   cfg,
		logger:   appLogger,
		db:       db,
		registry: metrics.NewRegistry(),
	}

	// Redis only backs the list-view throttle, which fails open
	var throttle ports.GenerationThrottle
	if withRedis && cfg.Redis.Enabled && cfg.Generation.ThrottleEnabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Warnw("Redis unavailable, generation throttle disabled", "addr", cfg.Redis.GetAddr(), "error", err)
		} else {
			a.redis = client
			throttle = cache.NewRedisThrottle(client)
		}
	}

	a.templates = repository.NewTemplateRepository(db.DB)
	exceptions := repository.NewExceptionRepository(db.DB)
	tasks := repository.NewTaskRepository(db.DB)

	a.recurrence = services.NewRecurrenceService(a.templates, exceptions, appLogger)
	a.generation = services.NewGenerationService(a.templates, exceptions, tasks, throttle,
		metrics.NewGeneration(a.registry), cfg.Generation, appLogger)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warnw("Failed to close redis client", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warnw("Failed to close database", "error", err)
	}
	a.logger.Close()
}
