package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "sale:test-" + uuid.NewString()
	defer client.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	if !ok {
		t.Error("expected first set to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("second set failed: %v", err)
	}
	if ok {
		t.Error("expected second set to report existing key")
	}
}

func TestClearIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "sale:test-" + uuid.NewString()
	defer client.Del(ctx, key)

	if _, err := adapter.SetIdempotency(ctx, key); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := adapter.ClearIdempotency(ctx, key); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("set after clear failed: %v", err)
	}
	if !ok {
		t.Error("expected set to succeed after clear")
	}
}
