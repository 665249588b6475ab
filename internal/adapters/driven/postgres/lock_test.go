package postgres

import (
	"context"
	"testing"
	"time"
)

// TestLockKey verifies distinct lock names map to distinct advisory keys
// and that the mapping is stable across calls.
func TestLockKey(t *testing.T) {
	a := lockKey("ingest:doc-1")
	b := lockKey("ingest:doc-2")
	if a == b {
		t.Errorf("expected distinct keys for distinct names, both %d", a)
	}
	if a != lockKey("ingest:doc-1") {
		t.Error("expected a stable key for the same name")
	}
}

// TestAdvisoryLock_ExtendIsNoop verifies Extend succeeds without touching
// the database, since advisory locks have no TTL to renew.
func TestAdvisoryLock_ExtendIsNoop(t *testing.T) {
	l := NewAdvisoryLock(nil)
	if err := l.Extend(context.Background(), "ingest:doc-1", time.Minute); err != nil {
		t.Fatalf("extend returned error: %v", err)
	}
}
