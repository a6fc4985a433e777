package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
)

// ErrNotAcquired is returned when the lock is still held by another owner
// after the bounded wait elapses.
var ErrNotAcquired = errors.New("lock not acquired within wait timeout")

// Store defines the redis operations the lock manager uses.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Eval(ctx context.Context, script string, keys []string, args ...any) (any, error)
	LockKey(scope, id string) string
}

// releaseScript compares and deletes in one server-side step, so a lock that
// expired and was taken over by another owner is never deleted.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// Manager hands out per-aggregate exclusive locks backed by Redis SETNX.
type Manager struct {
	store Store
	cfg   config.LockConfig
}

func NewManager(store Store, cfg config.LockConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("lock store is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 2 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	return &Manager{store: store, cfg: cfg}, nil
}

// Handle is a held lock. Release frees it only while this owner still holds it.
type Handle struct {
	store Store
	key   string
	owner string
}

// Acquire obtains the exclusive lock for the given scope and id, waiting up to
// the configured bound. It returns ErrNotAcquired when the wait is exhausted.
func (m *Manager) Acquire(ctx context.Context, scope, id string) (*Handle, error) {
	key := m.store.LockKey(scope, id)
	owner := uuid.NewString()

	backoff := retry.WithMaxDuration(m.cfg.WaitTimeout, retry.NewConstant(m.cfg.RetryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := m.store.SetNX(ctx, key, owner, m.cfg.TTL)
		if err != nil {
			return fmt.Errorf("setnx: %w", err)
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotAcquired) {
			return nil, ErrNotAcquired
		}
		return nil, err
	}

	return &Handle{store: m.store, key: key, owner: owner}, nil
}

// Release frees the lock only if the owner value still matches.
func (h *Handle) Release(ctx context.Context) error {
	if h == nil || h.owner == "" {
		return nil
	}
	if _, err := h.store.Eval(ctx, releaseScript, []string{h.key}, h.owner); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	h.owner = ""
	return nil
}
