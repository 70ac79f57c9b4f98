// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/pragatiboard/pragati/internal/app/store/docstore/mongodocs"
	"github.com/pragatiboard/pragati/internal/app/system/indexes"
	"github.com/pragatiboard/pragati/internal/app/system/realtime"
	"github.com/pragatiboard/pragati/internal/app/system/search"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and to the optional Redis and Meilisearch
// backends. Redis and Meilisearch problems are logged and the app runs
// without them; MongoDB is required.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return deps, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return deps, fmt.Errorf("ping MongoDB: %w", err)
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps.Hub = realtime.NewHub()
	deps.Changes = deps.Hub
	if appCfg.RedisURL != "" {
		connectRedis(connectCtx, appCfg, &deps, logger)
	}

	if appCfg.MeiliURL != "" {
		deps.Meili = search.NewMeili(appCfg.MeiliURL, appCfg.MeiliAPIKey, logger)
		deps.Search = search.NewService(deps.Meili, logger)
	}

	deps.Docs = mongodocs.New(deps.MongoDatabase, deps.Changes, logger)
	return deps, nil
}

func connectRedis(ctx context.Context, appCfg AppConfig, deps *DBDeps, logger *zap.Logger) {
	rc, err := realtime.NewRedisClient(ctx, appCfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable; realtime updates stay on this instance", zap.Error(err))
		return
	}
	relay, err := realtime.NewRedisRelay(ctx, rc, deps.Hub, appCfg.RedisChannel, logger)
	if err != nil {
		logger.Warn("redis relay failed to start; realtime updates stay on this instance", zap.Error(err))
		deps.Redis = rc
		return
	}
	deps.Redis = rc
	deps.Relay = relay
	deps.Changes = relay
	logger.Info("realtime relay connected to redis")
}

// EnsureSchema creates the MongoDB indexes the document store relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	return indexes.EnsureAll(ctx, deps.MongoDatabase, logger)
}
