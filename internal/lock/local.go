package lock

import (
	"context"
	"sync"
	"time"
)

type localLocker struct {
	mu   sync.Mutex
	held map[string]localLease
	seq  uint64
	ttl  time.Duration
	now  func() time.Time
}

type localLease struct {
	seq     uint64
	expires time.Time
}

// NewLocalLocker guards ingestion within a single process. It is used when
// no Redis URL is configured.
func NewLocalLocker(ttl time.Duration) Locker {
	return &localLocker{
		held: make(map[string]localLease),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (l *localLocker) Acquire(_ context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.held[key]; ok && (l.ttl <= 0 || now.Before(lease.expires)) {
		return nil, ErrHeld
	}

	l.seq++
	lease := localLease{seq: l.seq, expires: now.Add(l.ttl)}
	l.held[key] = lease

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.seq == lease.seq {
			delete(l.held, key)
		}
		return nil
	}, nil
}
