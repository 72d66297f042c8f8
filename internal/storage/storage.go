// Package storage is the keyed entity store every game component persists
// through. Records are addressed by composite keys and mutated inside a
// transaction: one service call maps to one transaction, and a failed call
// leaves no partial writes behind.
package storage

import (
	"context"
	"strings"
)

// Store opens transactions. The platform serializes mutating calls, so a
// transaction sees a consistent snapshot and commits all of its writes or
// none of them.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single atomic unit of reads and writes. Rollback after Commit is a
// no-op, so callers can `defer tx.Rollback(ctx)` like any pgx transaction.
type Tx interface {
	// Get loads the record at key. The second return is false when no
	// record exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Append adds an element to the ordered list at key; List returns the
	// elements in insertion order.
	Append(ctx context.Context, key string, value []byte) error
	List(ctx context.Context, key string) ([][]byte, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Key joins composite key parts. Components prefix their own namespace
// ("hunt", "challenge", "role", ...) so no component reads another's records
// directly.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
