package infrastructure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type localLease struct {
	token   string
	expires time.Time
}

// LocalLock is the single-process counterpart of RedisLock
type LocalLock struct {
	mu     sync.Mutex
	ttl    time.Duration
	leases map[string]localLease
	now    func() time.Time
}

// NewLocalLock creates a lock whose leases expire after ttl
func NewLocalLock(ttl time.Duration) *LocalLock {
	return &LocalLock{
		ttl:    ttl,
		leases: make(map[string]localLease),
		now:    time.Now,
	}
}

func (l *LocalLock) Acquire(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, held := l.leases[key]; held && now.Before(lease.expires) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.leases[key] = localLease{token: token, expires: now.Add(l.ttl)}
	return token, true, nil
}

func (l *LocalLock) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return errors.New("key and token are required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, held := l.leases[key]; held && lease.token == token {
		delete(l.leases, key)
	}
	return nil
}
