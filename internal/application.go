package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/sabotage-connect4/internal/config"
	"github.com/rocketscienceinc/sabotage-connect4/internal/metrics"
	"github.com/rocketscienceinc/sabotage-connect4/internal/repository"
	"github.com/rocketscienceinc/sabotage-connect4/internal/repository/storage"
	"github.com/rocketscienceinc/sabotage-connect4/internal/usecase"
	"github.com/rocketscienceinc/sabotage-connect4/transport/rest"
	"github.com/rocketscienceinc/sabotage-connect4/transport/websocket"
)

var (
	ErrAddrNotFound = errors.New("redis address string is empty")
	ErrUnknownStore = errors.New("unknown table store")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tableRepo, closeStore, err := openTableStore(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	appMetrics := metrics.New(conf.Metrics.Namespace)
	hub := websocket.NewHub(logger, appMetrics)
	tableManager := usecase.NewTableManager(logger, tableRepo, appMetrics, hub)
	live := websocket.NewServer(logger, tableManager, hub)

	router := rest.NewRouter(logger, tableManager, appMetrics.Handler(), live)

	log.Info("Starting HTTP server", "port", conf.HTTPPort, "store", conf.Store)

	if err = rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func openTableStore(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.TableRepository, func(), error) {
	switch conf.Store {
	case config.StoreMemory:
		return repository.NewMemoryTableRepository(conf.TableTTL), func() {}, nil
	case config.StoreRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		closeStore := func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}

		return repository.NewTableRepository(redisStorage.Connection, conf.TableTTL), closeStore, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, conf.Store)
	}
}
