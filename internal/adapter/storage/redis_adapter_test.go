package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/provly/provenance/internal/core/domain"
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
	key := fmt.Sprintf("test:idem:%d", time.Now().UnixNano())
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
		t.Error("expected second set to report duplicate")
	}
}

func TestReleaseIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := fmt.Sprintf("test:idem:%d", time.Now().UnixNano())
	defer client.Del(ctx, key)

	if _, err := adapter.SetIdempotency(ctx, key); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := adapter.ReleaseIdempotency(ctx, key); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("set after release failed: %v", err)
	}
	if !ok {
		t.Error("expected key to be reusable after release")
	}
}

func TestPublish_FanOut(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	sub := client.Subscribe(ctx, EventChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	want := domain.Event{
		ID:     fmt.Sprintf("evt-%d", time.Now().UnixNano()),
		Type:   domain.EventItemSold,
		At:     time.Now(),
		ItemID: 7,
		Actor:  "bob",
		Price:  10_000,
	}
	if err := adapter.Publish(ctx, want); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got domain.Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.ID != want.ID || got.Type != want.Type || got.ItemID != 7 {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}
