package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel change notifications travel on.
const DefaultChannel = "pragati:changes"

const publishTimeout = 2 * time.Second

// RedisRelay extends a Hub across instances. Local writes are published to
// the local hub and to Redis; notifications from other instances are
// forwarded into the local hub. Messages carry an origin id so an instance
// ignores its own echoes.
type RedisRelay struct {
	client  *redis.Client
	hub     *Hub
	channel string
	origin  string
	log     *zap.Logger

	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisClient parses redisURL and verifies the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisRelay subscribes to channel and starts forwarding remote
// notifications into hub. An empty channel uses DefaultChannel.
func NewRedisRelay(ctx context.Context, client *redis.Client, hub *Hub, channel string, log *zap.Logger) (*RedisRelay, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	r := &RedisRelay{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		log:     log,
		pubsub:  ps,
		done:    make(chan struct{}),
	}
	go r.forward(ps.Channel())
	return r, nil
}

// Publish implements docstore.Notifier.
func (r *RedisRelay) Publish(c docstore.Collection) {
	r.hub.Publish(c)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, r.origin+"|"+string(c)).Err(); err != nil {
		r.log.Warn("redis publish failed",
			zap.String("collection", string(c)),
			zap.Error(err))
	}
}

// Listen implements docstore.Listener.
func (r *RedisRelay) Listen(c docstore.Collection) (<-chan struct{}, func()) {
	return r.hub.Listen(c)
}

// Close stops forwarding. The Redis client itself is left open.
func (r *RedisRelay) Close() error {
	err := r.pubsub.Close()
	<-r.done
	return err
}

func (r *RedisRelay) forward(ch <-chan *redis.Message) {
	defer close(r.done)
	for msg := range ch {
		origin, coll, ok := strings.Cut(msg.Payload, "|")
		if !ok {
			r.log.Warn("dropping malformed change message", zap.String("payload", msg.Payload))
			continue
		}
		if origin == r.origin {
			continue
		}
		r.hub.Publish(docstore.Collection(coll))
	}
}
