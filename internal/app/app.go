package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/goinginblind/lso-gateway/internal/api"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/consumer"
	"github.com/goinginblind/lso-gateway/internal/fieldmap"
	"github.com/goinginblind/lso-gateway/internal/pkg/health"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/seller"
	"github.com/goinginblind/lso-gateway/internal/service"
	"github.com/goinginblind/lso-gateway/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App struct holds all the core components of the application
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	closeDB  func() error
	server   *api.Server
	consumer *consumer.KafkaConsumer
	hc       *health.StoreHealthChecker
}

// New returns a new App instance
func New() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create a logger: %w", err)
	}

	backend, closeDB, err := openStore(cfg.Store, appLogger)
	if err != nil {
		return nil, err
	}
	st := backend
	if cfg.Store.CacheEntryCountCap > 0 {
		st = store.NewCachingStore(backend, appLogger, cfg.Store.CacheEntryCountCap, cfg.Store.CacheEntrySizeCap)
	}

	templates, err := config.LoadTemplates(cfg.Templates)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to load payload templates: %w", err)
	}
	dict, err := fieldmap.LoadDictionary(cfg.FieldMap)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to load field mapping: %w", err)
	}

	repos := service.NewRepositories(st)
	sellerClient := seller.NewHTTPClient(cfg.Seller, appLogger)
	lifecycle := service.NewLifecycle(repos, sellerClient, fieldmap.NewMapper(dict), templates, appLogger)
	hub := service.NewHub(repos, appLogger)
	notifier := service.NewNotifier(repos, appLogger)

	hc := health.NewStoreHealthChecker(st, appLogger, cfg.Health.Interval, cfg.Health.Timeout)
	server := api.NewServer(lifecycle, hub, notifier, hc, appLogger, cfg.HTTPServer)

	var kafkaConsumer *consumer.KafkaConsumer
	if cfg.Kafka.Enabled {
		kafkaConsumer, err = consumer.NewKafkaConsumer(cfg.Kafka, cfg.Consumer, notifier, hc, appLogger)
		if err != nil {
			closeDB()
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
	}

	appLogger.Infow("Gateway configured",
		"store", cfg.Store.Backend,
		"cache_entries", cfg.Store.CacheEntryCountCap,
		"kafka", cfg.Kafka.Enabled,
		"seller", cfg.Seller.BaseURL,
	)

	return &App{
		cfg:      cfg,
		logger:   appLogger,
		closeDB:  closeDB,
		server:   server,
		consumer: kafkaConsumer,
		hc:       hc,
	}, nil
}

// openStore connects the configured backend. The returned func releases
// its connections.
func openStore(cfg config.StoreConfig, log logger.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), noop, nil

	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pg := store.NewPostgresStore(db, log)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to prepare database schema: %w", err)
		}
		return pg, db.Close, nil

	case config.BackendRedis:
		rs, err := store.NewRedisStore(cfg.RedisURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return rs, rs.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Run, well, runs the whole app. It passes down to every layer
// a context with cancel, which listens for a system call, upon recieving which the app terminates
func (a *App) Run() {
	defer func() {
		if err := a.closeDB(); err != nil {
			a.logger.Errorw("failed to close store", "error", err)
		}
		if err := a.logger.Sync(); err != nil {
			log.Printf("failed to sync logger: %v\n", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.hc.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start(":" + a.cfg.HTTPServer.Port)
	}()

	consumerDone := make(chan struct{})
	if a.consumer != nil {
		go func() {
			defer close(consumerDone)
			a.consumer.Run(ctx)
		}()
	} else {
		close(consumerDone)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		a.logger.Infow("Shutting down...", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			a.logger.Errorw("HTTP server stopped", "error", err)
		}
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Errorw("failed to shut the server down cleanly", "error", err)
	}
	<-consumerDone
}
