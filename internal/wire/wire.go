// Package wire provides dependency injection for the mes application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"

	cliadapter "github.com/example/mes/internal/adapters/cli"
	"github.com/example/mes/internal/adapters/sqlite"
	"github.com/example/mes/internal/adapters/transport"
	"github.com/example/mes/internal/app"
	"github.com/example/mes/internal/config"
	"github.com/example/mes/internal/db"
	"github.com/example/mes/internal/logging"
	"github.com/example/mes/internal/ports/primary"
)

var (
	cfg              *config.Config
	logger           *zap.Logger
	syncService      primary.SyncService
	orderService     primary.OrderService
	recordingService primary.RecordingService
	progressService  primary.ProgressService
	once             sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the application logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	once.Do(initServices)
	return syncService
}

// OrderService returns the singleton OrderService instance.
func OrderService() primary.OrderService {
	once.Do(initServices)
	return orderService
}

// RecordingService returns the singleton RecordingService instance.
func RecordingService() primary.RecordingService {
	once.Do(initServices)
	return recordingService
}

// ProgressService returns the singleton ProgressService instance.
func ProgressService() primary.ProgressService {
	once.Do(initServices)
	return progressService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}

	cfg, err = config.LoadConfig(cwd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Env: cfg.Log.Env})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	eventRepo := sqlite.NewEventRepository(database)
	outboxRepo := sqlite.NewOutboxRepository(database)
	orderRepo := sqlite.NewOrderRepository(database)
	lotRepo := sqlite.NewLotRepository(database)
	inboxRepo := sqlite.NewRemoteInboxRepository(database)
	transactor := sqlite.NewTransactor(database)

	// Config validation already rejected unparseable cooldowns.
	cooldown, _ := cfg.Sync.Breaker.CooldownDuration()
	remote := transport.NewBreakerTransport(
		transport.NewMockTransport(inboxRepo),
		transport.BreakerSettings{MaxFailures: cfg.Sync.Breaker.MaxFailures, Cooldown: cooldown},
		logger,
	)

	// Create services (primary ports implementation)
	syncService = app.NewSyncService(outboxRepo, remote, app.SyncDefaults{
		Limit:       cfg.Sync.Limit,
		FailureRate: cfg.Sync.FailureRate,
	}, logger)
	orderService = app.NewOrderService(orderRepo, lotRepo, eventRepo, outboxRepo, transactor, cfg.WorkshopID, logger)
	recordingService = app.NewRecordingService(orderRepo, lotRepo, eventRepo, outboxRepo, transactor, logger)
	progressService = app.NewProgressService(orderRepo, lotRepo, eventRepo)
}

// SyncAdapter returns a new SyncAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func SyncAdapter() *cliadapter.SyncAdapter {
	return SyncAdapterWithOutput(os.Stdout)
}

// SyncAdapterWithOutput returns a new SyncAdapter writing to the given output.
func SyncAdapterWithOutput(out io.Writer) *cliadapter.SyncAdapter {
	once.Do(initServices)
	return cliadapter.NewSyncAdapter(syncService, out)
}

// OrderAdapter returns a new OrderAdapter writing to stdout.
func OrderAdapter() *cliadapter.OrderAdapter {
	return OrderAdapterWithOutput(os.Stdout)
}

// OrderAdapterWithOutput returns a new OrderAdapter writing to the given output.
func OrderAdapterWithOutput(out io.Writer) *cliadapter.OrderAdapter {
	once.Do(initServices)
	return cliadapter.NewOrderAdapter(orderService, progressService, out)
}

// RecordAdapter returns a new RecordAdapter writing to stdout.
func RecordAdapter() *cliadapter.RecordAdapter {
	return RecordAdapterWithOutput(os.Stdout)
}

// RecordAdapterWithOutput returns a new RecordAdapter writing to the given output.
func RecordAdapterWithOutput(out io.Writer) *cliadapter.RecordAdapter {
	once.Do(initServices)
	return cliadapter.NewRecordAdapter(recordingService, out)
}
