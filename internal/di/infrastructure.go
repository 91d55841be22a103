package di

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/internal/repository/migrations"
	"github.com/AminArria/sponsorly/pkg/config"
	"github.com/AminArria/sponsorly/pkg/database"
	"github.com/AminArria/sponsorly/pkg/kafka"
	"github.com/AminArria/sponsorly/pkg/logger"
	pkgredis "github.com/AminArria/sponsorly/pkg/redis"
)

// Infrastructure holds the external connections. Redis and Kafka are nil
// unless enabled.
type Infrastructure struct {
	Postgres *database.PostgresDB
	SQLite   *sql.DB
	Store    repository.Store
	Redis    *pkgredis.Client
	Producer *kafka.Producer
}

// NewInfrastructure opens the configured store and the optional Redis and
// Kafka clients. Whatever was opened is closed again on error.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	if err := infra.openStore(ctx, &cfg.Database); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisCfg := pkgredis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		client, err := pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			infra.Close(ctx)
			return nil, err
		}
		infra.Redis = client
	}

	if cfg.Kafka.Enabled {
		producerCfg := kafka.DefaultProducerConfig()
		producerCfg.Brokers = cfg.Kafka.Brokers
		producerCfg.ClientID = cfg.Kafka.ClientID
		producerCfg.TopicPrefix = cfg.Kafka.TopicPrefix

		producer, err := kafka.NewProducer(ctx, producerCfg)
		if err != nil {
			infra.Close(ctx)
			return nil, err
		}
		infra.Producer = producer
	}

	return infra, nil
}

// OpenStore opens only the store, for commands that need nothing else
func OpenStore(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}
	if err := infra.openStore(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	return infra, nil
}

func (i *Infrastructure) openStore(ctx context.Context, cfg *config.DatabaseConfig) error {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, &database.SQLiteConfig{Path: cfg.SQLitePath})
		if err != nil {
			return err
		}
		i.SQLite = db
		i.Store = repository.NewSQLiteStore(db)
		logger.Info("Using SQLite store", zap.String("path", cfg.SQLitePath))

	case config.DriverPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.Host
		pgCfg.Port = cfg.Port
		pgCfg.User = cfg.User
		pgCfg.Password = cfg.Password
		pgCfg.Database = cfg.DBName
		pgCfg.SSLMode = cfg.SSLMode
		pgCfg.MaxConns = int32(cfg.MaxOpenConns)
		pgCfg.MinConns = int32(cfg.MaxIdleConns)
		pgCfg.MaxConnLifetime = cfg.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

		db, err := database.NewPostgres(ctx, pgCfg)
		if err != nil {
			return err
		}
		i.Postgres = db
		i.Store = repository.NewPostgresStore(db.Pool())
		logger.Info("Using PostgreSQL store", zap.String("host", cfg.Host), zap.String("database", cfg.DBName))

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return nil
}

// Migrate applies the pending migrations for the open store
func (i *Infrastructure) Migrate(ctx context.Context) (int, error) {
	if i.Postgres != nil {
		return i.Postgres.Migrate(ctx, migrations.Postgres, "postgres")
	}
	if i.SQLite != nil {
		return database.ApplySQLiteMigrations(ctx, i.SQLite, migrations.SQLite, "sqlite")
	}
	return 0, fmt.Errorf("no store is open")
}

// Close releases every open connection
func (i *Infrastructure) Close(ctx context.Context) {
	if i.Producer != nil {
		i.Producer.Close(ctx)
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
	if i.SQLite != nil {
		if err := i.SQLite.Close(); err != nil {
			logger.Warn("failed to close sqlite", zap.Error(err))
		}
	}
}
