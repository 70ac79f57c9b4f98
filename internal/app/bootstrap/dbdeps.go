// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/realtime"
	"github.com/pragatiboard/pragati/internal/app/system/search"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. Optional
// backends are nil when not configured.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Docs is the document store every feature reads and writes through.
	Docs docstore.Store

	// Hub fans change notifications out to local subscribers. Changes is
	// what the store publishes to and streams listen on: the hub itself,
	// or the Redis relay wrapping it.
	Hub     *realtime.Hub
	Changes Changes
	Relay   *realtime.RedisRelay
	Redis   *redis.Client

	Meili  *search.Meili
	Search *search.Service
}

// Changes is both ends of the change notification bus.
type Changes interface {
	docstore.Notifier
	docstore.Listener
}
