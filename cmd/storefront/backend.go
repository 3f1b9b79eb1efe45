package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fjod/go_cart/storefront/internal/breaker"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/health"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type orderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

// backend is the storage strategy picked by BACKEND.
type backend struct {
	newPersistence session.PersistenceFactory
	products       cart.ProductLookup
	orders         orderStore
	checks         map[string]health.Checker
	poller         *publisher.OutboxPoller
	closers        []func() error
}

func (b *backend) Close(log *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn("failed to close backend resource", zap.Error(err))
		}
	}
}

func newBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		return newRemoteBackend(ctx, cfg, log)
	default:
		return newLocalBackend(cfg, log)
	}
}

// newLocalBackend keeps carts as JSON files and the catalog and orders in
// SQLite, so the storefront runs with no external services.
func newLocalBackend(cfg *config.Config, log *zap.Logger) (*backend, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	repo, err := repository.NewSQLiteRepository(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(filepath.Join(cfg.MigrationsPath, "sqlite")); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("local backend ready", zap.String("sqlite", cfg.SQLitePath), zap.String("carts", cfg.DataDir))

	return &backend{
		newPersistence: func(sessionID string) (cart.Persistence, error) {
			return repository.NewFileCartStore(cfg.DataDir, sessionID)
		},
		products: repository.NewCoalescingLookup(repo),
		orders:   repo,
		checks:   map[string]health.Checker{"catalog": repo},
		closers:  []func() error{repo.Close},
	}, nil
}

// newRemoteBackend keeps carts in MongoDB behind a Redis read cache, the
// catalog and orders in Postgres, and publishes order events to Kafka.
func newRemoteBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{}
	fail := func(err error) (*backend, error) {
		b.Close(log)
		return nil, err
	}

	creds := &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: filepath.Join(cfg.MigrationsPath, "postgres"),
	}
	pg, err := repository.NewPostgresRepository(creds, cfg.Currency)
	if err != nil {
		return fail(err)
	}
	b.closers = append(b.closers, pg.Close)
	if err := pg.RunMigrations(creds); err != nil {
		return fail(fmt.Errorf("failed to run migrations: %w", err))
	}

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return fail(err)
	}
	b.closers = append(b.closers, func() error { return mongoDB.Client().Disconnect(context.Background()) })
	if err := repository.CreateCartIndexes(ctx, mongoDB); err != nil {
		return fail(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	b.closers = append(b.closers, rdb.Close)
	cache := repository.NewRedisCartCache(rdb)

	b.newPersistence = func(sessionID string) (cart.Persistence, error) {
		store, err := repository.NewMongoCartStore(mongoDB, sessionID)
		if err != nil {
			return nil, err
		}
		return repository.NewCachedCartStore(cache, store, sessionID, log), nil
	}
	b.products = breaker.NewLookup(repository.NewCoalescingLookup(pg), breaker.DefaultSettings(), log)
	b.orders = breaker.NewOrders(pg, breaker.DefaultSettings(), log)
	b.checks = map[string]health.Checker{
		"postgres": pg,
		"mongodb": health.CheckerFunc(func(ctx context.Context) error {
			return mongoDB.Client().Ping(ctx, nil)
		}),
		"redis": health.CheckerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
	}

	writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
	b.poller = publisher.NewOutboxPoller(pg, writer, log)
	b.closers = append(b.closers, b.poller.Close)

	log.Info("remote backend ready",
		zap.String("postgres", fmt.Sprintf("%s:%d/%s", cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)),
		zap.String("redis", cfg.RedisAddr),
		zap.Strings("kafka", cfg.KafkaBrokers))
	return b, nil
}
