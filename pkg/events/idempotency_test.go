package events

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "jos:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestCheckAndMarkProcessed(t *testing.T) {
	mgr, err := NewIdempotencyManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyManager: %v", err)
	}

	ctx := context.Background()
	seen, err := mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-1", "batch.complete")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if seen {
		t.Fatal("expected first call to report unseen")
	}

	seen, err = mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-1", "batch.complete")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !seen {
		t.Fatal("expected second call to report already processed")
	}

	// Same event id under a different trigger type is a distinct key.
	seen, err = mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-1", "review.request")
	if err != nil {
		t.Fatalf("third check: %v", err)
	}
	if seen {
		t.Fatal("expected distinct trigger type to report unseen")
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	mgr, err := NewIdempotencyManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyManager: %v", err)
	}

	ctx := context.Background()
	if _, err := mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-2", "gap.scan.complete"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := mgr.Delete(ctx, "trigger-consumer", "evt-2", "gap.scan.complete"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	seen, err := mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-2", "gap.scan.complete")
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if seen {
		t.Fatal("expected event to be retryable after delete")
	}
}

func TestProcessedKeyValidation(t *testing.T) {
	mgr, err := NewIdempotencyManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewIdempotencyManager: %v", err)
	}

	ctx := context.Background()
	if _, err := mgr.CheckAndMarkProcessed(ctx, "", "evt-3", "system"); err == nil {
		t.Fatal("expected error for empty consumer")
	}
	if _, err := mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "", "system"); err == nil {
		t.Fatal("expected error for empty event id")
	}
	if _, err := mgr.CheckAndMarkProcessed(ctx, "trigger-consumer", "evt-3", ""); err == nil {
		t.Fatal("expected error for empty trigger type")
	}
}
