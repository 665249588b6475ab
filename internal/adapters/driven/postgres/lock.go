package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock on pg_try_advisory_lock. It backs
// the ingestion single-flight guard when no Redis is configured.
//
// Advisory locks are session-scoped rather than TTL-based: a lock is held
// until it is released or the holding connection drops. The TTL argument is
// accepted for interface parity and ignored. A crashed holder frees its
// locks when Postgres reaps the connection, so stale locks cannot outlive
// the process that took them.
type AdvisoryLock struct {
	db *DB
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db}
}

// lockKey folds a lock name into the 64-bit key space advisory locks use.
// FNV-1a over a prefixed name keeps distinct names well distributed and
// avoids colliding with other applications sharing the database.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("botmesh:lock:" + name))
	return int64(h.Sum64())
}

// Acquire takes the named lock without blocking. Returns false when another
// session already holds it.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockKey(name)).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// Release frees the named lock. Releasing a lock this session does not hold
// is not an error.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	var released bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey(name)).Scan(&released)
	if err != nil {
		return err
	}
	// released=false means the lock wasn't held, which is not an error
	return nil
}

// Extend is a no-op. Advisory locks have no TTL to renew: the session keeps
// the lock until Release or disconnect, so a long ingestion run stays
// covered without renewal.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// Ping reports whether the Postgres backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
