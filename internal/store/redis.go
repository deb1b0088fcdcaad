package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"messenger-service/internal/observability"
)

const (
	nodeKeyPrefix      = "store:node:"
	notifyChannelBase  = "store:notify:"
	subscriptionBuffer = 8
)

// RedisStore implements Store over Redis. Each path maps to one key holding
// a JSON document; a write publishes a notification for the written path and
// every ancestor, which is how descendant writes reach a parent's
// subscribers.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect initializes the store from environment configuration.
func Connect() (*RedisStore, error) {
	addr := getEnv("STORE_REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: getEnv("STORE_REDIS_PASSWORD", ""),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Read implements Store.
func (s *RedisStore) Read(ctx context.Context, path string, dest any) error {
	raw, err := s.client.Get(ctx, nodeKey(path)).Result()
	if err == redis.Nil {
		observability.IncStoreOp("read", "absent")
		return ErrNotFound
	}
	if err != nil {
		observability.IncStoreOp("read", "error")
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		observability.IncStoreOp("read", "error")
		return fmt.Errorf("read %s: %w: %v", path, ErrFetchFailed, err)
	}
	observability.IncStoreOp("read", "ok")
	return nil
}

// Write implements Store. The value replaces whatever was stored at path.
func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := s.client.Set(ctx, nodeKey(path), body, 0).Err(); err != nil {
		observability.IncStoreOp("write", "error")
		return fmt.Errorf("write %s: %w", path, err)
	}
	// Notify subscribers of the path and of every ancestor.
	for _, p := range selfAndAncestors(path) {
		_ = s.client.Publish(ctx, notifyChannel(p), path).Err()
	}
	observability.IncStoreOp("write", "ok")
	return nil
}

// Subscribe implements Store.
func (s *RedisStore) Subscribe(ctx context.Context, path string) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, notifyChannel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}

	sub := &redisSubscription{
		updates: make(chan json.RawMessage, subscriptionBuffer),
		pubsub:  pubsub,
		done:    make(chan struct{}),
	}
	go sub.pump(ctx, s, path)
	return sub, nil
}

type redisSubscription struct {
	updates chan json.RawMessage
	pubsub  *redis.PubSub
	done    chan struct{}
	once    sync.Once
}

func (s *redisSubscription) Updates() <-chan json.RawMessage { return s.updates }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) pump(ctx context.Context, store *RedisStore, path string) {
	defer close(s.updates)

	// Deliver the current value before any change notification.
	var snapshot json.RawMessage
	if err := store.Read(ctx, path, &snapshot); err == nil {
		if !s.deliver(ctx, snapshot) {
			return
		}
	}

	notifications := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case _, ok := <-notifications:
			if !ok {
				return
			}
			var value json.RawMessage
			if err := store.Read(ctx, path, &value); err != nil {
				continue
			}
			if !s.deliver(ctx, value) {
				return
			}
		}
	}
}

func (s *redisSubscription) deliver(ctx context.Context, value json.RawMessage) bool {
	select {
	case s.updates <- value:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func nodeKey(path string) string {
	return nodeKeyPrefix + strings.Trim(path, "/")
}

func notifyChannel(path string) string {
	return notifyChannelBase + strings.Trim(path, "/")
}

// selfAndAncestors returns the path itself plus every ancestor path, nearest
// first: "a/b/c" -> ["a/b/c", "a/b", "a"].
func selfAndAncestors(path string) []string {
	trimmed := strings.Trim(path, "/")
	segments := strings.Split(trimmed, "/")
	paths := make([]string, 0, len(segments))
	for i := len(segments); i > 0; i-- {
		paths = append(paths, strings.Join(segments[:i], "/"))
	}
	return paths
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
