package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}}
}

func (s *mapStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

// Eval mimics the compare-and-delete script without interpreting Lua.
func (s *mapStore) Eval(ctx context.Context, script string, keys []string, args ...any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(keys) != 1 || len(args) != 1 {
		return nil, errors.New("unexpected script call")
	}
	owner, _ := args[0].(string)
	if s.values[keys[0]] == owner {
		delete(s.values, keys[0])
		return int64(1), nil
	}
	return int64(0), nil
}

func (s *mapStore) LockKey(scope, id string) string {
	return strings.Join([]string{"ty", "lock", scope, id}, ":")
}

func testConfig() config.LockConfig {
	return config.LockConfig{
		TTL:           time.Minute,
		WaitTimeout:   100 * time.Millisecond,
		RetryInterval: 10 * time.Millisecond,
	}
}

func TestAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	mgr, err := NewManager(store, testConfig())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	handle, err := mgr.Acquire(ctx, "order", "o-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, ok := store.values["ty:lock:order:o-1"]; !ok {
		t.Fatalf("expected lock key to exist")
	}

	if err := handle.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, ok := store.values["ty:lock:order:o-1"]; ok {
		t.Fatalf("expected lock key to be removed")
	}
}

func TestAcquireTimesOutWhileHeld(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	mgr, err := NewManager(store, testConfig())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	first, err := mgr.Acquire(ctx, "order", "o-1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer first.Release(ctx)

	if _, err := mgr.Acquire(ctx, "order", "o-1"); err != ErrNotAcquired {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	cfg := testConfig()
	cfg.WaitTimeout = time.Second
	mgr, err := NewManager(store, cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	first, err := mgr.Acquire(ctx, "order", "o-1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = first.Release(context.Background())
	}()

	second, err := mgr.Acquire(ctx, "order", "o-1")
	if err != nil {
		t.Fatalf("second acquire should succeed after release: %v", err)
	}
	_ = second.Release(ctx)
}

func TestReleaseIgnoresStolenLock(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	mgr, err := NewManager(store, testConfig())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	handle, err := mgr.Acquire(ctx, "order", "o-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// Simulate TTL expiry and takeover by another owner.
	store.mu.Lock()
	store.values["ty:lock:order:o-1"] = "someone-else"
	store.mu.Unlock()

	if err := handle.Release(ctx); err != nil {
		t.Fatalf("release should be a no-op: %v", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.values["ty:lock:order:o-1"] != "someone-else" {
		t.Fatalf("release must not delete a lock it no longer owns")
	}
}
