// Package app assembles the record store, cache and event publisher from
// configuration. The server and the seeder share it.
package app

import (
	"context"
	"fmt"

	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/database"
	"github.com/pushp314/rental-messaging-backend/internal/events"
	"github.com/pushp314/rental-messaging-backend/internal/migrations"
	"github.com/pushp314/rental-messaging-backend/internal/services"
	"github.com/pushp314/rental-messaging-backend/internal/store"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// StoreWithSeeder is what OpenStore returns: both store implementations can
// also write users and properties.
type StoreWithSeeder interface {
	store.Store
	store.Seeder
}

// OpenStore connects the record store selected by STORE_DRIVER. Relational
// schemas are migrated when RUN_MIGRATIONS is set.
func OpenStore(ctx context.Context, cfg *config.Config) (StoreWithSeeder, error) {
	if cfg.StoreDriver == config.DriverMongo {
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		s, err := store.NewMongoStore(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("prepare mongo collections: %w", err)
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")
		return s, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	s := store.NewGormStore(db)

	if cfg.RunMigrations {
		if err := database.AutoMigrate(db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		if err := migrations.NewMigrator(db).Run(); err != nil {
			_ = s.Close()
			return nil, err
		}
		logger.Info().Msg("Database migrations complete")
	}
	return s, nil
}

// NewPublisher picks Kafka when brokers are configured, then NATS, and
// otherwise drops events.
func NewPublisher(cfg *config.Config) (events.Publisher, error) {
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("Publishing message events to Kafka")
		return events.NewKafkaPublisher(brokers, cfg.KafkaTopic), nil
	}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		logger.Info().Str("url", cfg.NATSURL).Msg("Publishing message events to NATS")
		return p, nil
	}
	return events.NoopPublisher{}, nil
}

// NewThreadService builds the service with an optional Redis inbox cache.
func NewThreadService(cfg *config.Config, s store.Store, redisClient *redis.Client, publisher events.Publisher) *services.ThreadService {
	opts := services.Options{
		Publisher:           publisher,
		EnforceParticipants: cfg.EnforceThreadACL,
	}
	if redisClient != nil && cfg.InboxCacheTTL > 0 {
		opts.Cache = database.NewInboxCache(redisClient, cfg.InboxCacheTTL)
	}
	return services.NewThreadService(s, opts)
}
