// Package initializer builds the infrastructure behind the services from
// configuration: logger, unit of work, event bus and limiter storage.
package initializer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/bankledger/infra"
	"github.com/amirasaad/bankledger/infra/cache"
	infra_eventbus "github.com/amirasaad/bankledger/infra/eventbus"
	infra_repository "github.com/amirasaad/bankledger/infra/repository"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/gofiber/fiber/v2"
)

// Resources is everything InitializeDependencies opened. Close releases it.
type Resources struct {
	Deps    config.Deps
	Storage fiber.Storage
	closers []func() error
}

// Close releases connections in reverse order of opening.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// InitializeDependencies initializes all the application dependencies.
func InitializeDependencies(cfg *config.App) (*Resources, error) {
	logger := SetupLogger(cfg.Log)
	res := &Resources{Deps: config.Deps{Logger: logger, Config: cfg}}
	success := false
	defer func() {
		if !success {
			_ = res.Close()
		}
	}()

	uow, closeDB, err := initUnitOfWork(cfg, logger)
	if err != nil {
		return nil, err
	}
	res.Deps.Uow = uow
	if closeDB != nil {
		res.closers = append(res.closers, closeDB)
	}

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	res.Deps.EventBus = bus
	if c, ok := bus.(interface{ Close() error }); ok {
		res.closers = append(res.closers, c.Close)
	}

	if storage := initLimiterStorage(cfg, logger); storage != nil {
		res.Storage = storage
		res.closers = append(res.closers, storage.Close)
	}
	success = true
	return res, nil
}

func initUnitOfWork(cfg *config.App, logger *slog.Logger) (repository.UnitOfWork, func() error, error) {
	if cfg.DB == nil || cfg.DB.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewUoW(memory.NewStore()), nil, nil
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if err := infra.RunMigrations(db, logger); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return infra_repository.NewUoW(db), sqlDB.Close, nil
}

// initEventBus picks the bus named by EventBus.Driver. Redis and Kafka fall
// back to the in-memory bus when the broker cannot be reached.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := ""
	if cfg.EventBus != nil {
		driver = cfg.EventBus.Driver
	}
	switch driver {
	case "", "memory":
		return infra_eventbus.NewWithMemory(logger), nil

	case "redis":
		url := ""
		if cfg.Redis != nil {
			url = cfg.Redis.URL
		}
		if url == "" {
			return nil, errors.New("event bus driver redis requires REDIS_URL")
		}
		busCfg := infra_eventbus.DefaultRedisEventBusConfig()
		if cfg.EventBus.Stream != "" {
			busCfg.Stream = cfg.EventBus.Stream
		}
		bus, err := infra_eventbus.NewWithRedis(url, logger, busCfg)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		return bus, nil

	case "kafka":
		k := cfg.EventBus.Kafka
		if k == nil || k.Brokers == "" {
			return nil, errors.New("event bus driver kafka requires EVENT_BUS_KAFKA_BROKERS")
		}
		busCfg := infra_eventbus.DefaultKafkaEventBusConfig()
		if k.GroupID != "" {
			busCfg.GroupID = k.GroupID
		}
		if k.Topic != "" {
			busCfg.TopicPrefix = k.Topic
		}
		bus, err := infra_eventbus.NewWithKafka(k.Brokers, logger, busCfg)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		return bus, nil

	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

// initLimiterStorage returns a Redis store for the rate limiter, or nil to
// keep counters in process.
func initLimiterStorage(cfg *config.App, logger *slog.Logger) *cache.RedisStorage {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return nil
	}
	storage, err := cache.NewRedisStorage(cfg.Redis.URL, cfg.Redis.KeyPrefix+"limiter:")
	if err != nil {
		logger.Warn("Redis limiter storage unavailable, using memory", "error", err)
		return nil
	}
	return storage
}
