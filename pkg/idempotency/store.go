// Package idempotency guards against double-processing a Kafka message that
// is delivered more than once under at-least-once delivery semantics.
package idempotency

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is satisfied by *pgxpool.Pool and pgx.Tx, so Record can be called
// either standalone or inside a caller's existing transaction so the
// side effect and the dedup record commit atomically.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Key identifies one delivery of one message to one consumer group.
type Key struct {
	ConsumerGroup string
	Topic         string
	Partition     int
	Offset        int64
}

// Store records processed (group, topic, partition, offset) tuples in a
// dedicated Postgres table. It is used by handlers whose own tables have no
// natural unique key to dedupe on (see services/audit, which instead relies
// on its own table's unique constraint and does not use this package).
type Store struct{}

// NewStore creates an idempotency store. It is stateless; every method takes
// the Queryer (pool or transaction) to operate against.
func NewStore() *Store {
	return &Store{}
}

// Seen reports whether key has already been recorded as processed.
func (s *Store) Seen(ctx context.Context, q Queryer, key Key) (bool, error) {
	var exists bool
	row := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM processed_messages
			WHERE consumer_group = $1 AND topic = $2 AND partition = $3 AND "offset" = $4
		)`, key.ConsumerGroup, key.Topic, key.Partition, key.Offset)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Record marks key as processed. A unique-violation on insert means another
// delivery of the same message already recorded it concurrently; that is
// treated as success, not an error, since the effect it's guarding has
// already happened exactly once.
func (s *Store) Record(ctx context.Context, q Queryer, key Key) error {
	_, err := q.Exec(ctx, `
		INSERT INTO processed_messages (consumer_group, topic, partition, "offset")
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (consumer_group, topic, partition, "offset") DO NOTHING`,
		key.ConsumerGroup, key.Topic, key.Partition, key.Offset)
	return err
}
