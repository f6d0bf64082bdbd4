//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/shopkart/internal/idempotency/postgres"
	"github.com/dejobratic/shopkart/internal/orders/ports"
	"github.com/dejobratic/shopkart/internal/testutil/pgtest"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := postgres.NewStore(pgtest.Setup(t))
	ctx := context.Background()

	key := "u-1:test-idempotency-key-1"
	response := ports.StoredResponse{
		StatusCode: 201,
		Body:       []byte(`{"order":{"id":"test-order-1"}}`),
		OrderID:    "test-order-1",
	}

	if err := store.Save(ctx, key, response); err != nil {
		t.Fatalf("failed to save idempotency key: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get idempotency key: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected response, got nil")
	}
	if retrieved.StatusCode != response.StatusCode {
		t.Errorf("expected status code %d, got %d", response.StatusCode, retrieved.StatusCode)
	}
	if string(retrieved.Body) != string(response.Body) {
		t.Errorf("expected body %s, got %s", response.Body, retrieved.Body)
	}
	if retrieved.OrderID != response.OrderID {
		t.Errorf("expected order ID %s, got %s", response.OrderID, retrieved.OrderID)
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	store := postgres.NewStore(pgtest.Setup(t))

	retrieved, err := store.Get(context.Background(), "nonexistent-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if retrieved != nil {
		t.Errorf("expected nil response, got %v", retrieved)
	}
}

func TestStoreSave_Conflict(t *testing.T) {
	store := postgres.NewStore(pgtest.Setup(t))
	ctx := context.Background()

	key := "u-1:test-idempotency-key-conflict"
	first := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"order":{"id":"order-1"}}`), OrderID: "order-1"}
	second := ports.StoredResponse{StatusCode: 200, Body: []byte(`{"redirect":"/payment"}`)}

	if err := store.Save(ctx, key, first); err != nil {
		t.Fatalf("failed to save first response: %v", err)
	}
	if err := store.Save(ctx, key, second); err != nil {
		t.Fatalf("failed to save second response (conflict): %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved.OrderID != first.OrderID {
		t.Errorf("expected first response to be preserved, got order ID %s", retrieved.OrderID)
	}
}

func TestStoreReusesExpiredKey(t *testing.T) {
	pool := pgtest.Setup(t)
	now := time.Now().UTC()
	store := postgres.NewStore(pool,
		postgres.WithRetention(time.Hour),
		postgres.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	key := "u-1:test-idempotency-key-expiry"
	if err := store.Save(ctx, key, ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: "order-1"}); err != nil {
		t.Fatalf("failed to save first response: %v", err)
	}

	now = now.Add(2 * time.Hour)
	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved != nil {
		t.Fatalf("expected expired key to read as unused, got %+v", retrieved)
	}

	if err := store.Save(ctx, key, ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: "order-2"}); err != nil {
		t.Fatalf("failed to save second response: %v", err)
	}
	retrieved, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved == nil || retrieved.OrderID != "order-2" {
		t.Errorf("expected expired row to be replaced, got %+v", retrieved)
	}
}

func TestStoreReserve(t *testing.T) {
	store := postgres.NewStore(pgtest.Setup(t))
	ctx := context.Background()
	key := "u-1:test-idempotency-key-claim"

	held, err := store.Reserve(ctx, key)
	if err != nil || held != nil {
		t.Fatalf("first Reserve() = %+v, %v; want a fresh claim", held, err)
	}

	held, err = store.Reserve(ctx, key)
	if err != nil {
		t.Fatalf("second Reserve() error = %v", err)
	}
	if held == nil || !held.Pending() {
		t.Fatalf("expected the running claim, got %+v", held)
	}

	if err := store.Save(ctx, key, ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: "order-1"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	held, err = store.Reserve(ctx, key)
	if err != nil {
		t.Fatalf("third Reserve() error = %v", err)
	}
	if held == nil || held.OrderID != "order-1" {
		t.Fatalf("expected the finished response, got %+v", held)
	}
}

func TestStoreRelease(t *testing.T) {
	store := postgres.NewStore(pgtest.Setup(t))
	ctx := context.Background()
	key := "u-1:test-idempotency-key-release"

	if _, err := store.Reserve(ctx, key); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	held, err := store.Reserve(ctx, key)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if held != nil {
		t.Errorf("released key should be claimable, got %+v", held)
	}
}
