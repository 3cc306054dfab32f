// Package archive persists compression provenance in PostgreSQL: one row per
// compression event plus the messages it evicted. Writes are best-effort by
// contract; the Manager logs and ignores failures here.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctxpress/ctxpress"
)

// Schema is the DDL for the archive tables. Apply it with Init or through
// your own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS ctxpress_compression_events (
	id UUID PRIMARY KEY,
	strategy TEXT NOT NULL,
	tokens_before INTEGER NOT NULL,
	tokens_after INTEGER NOT NULL,
	messages_removed INTEGER NOT NULL,
	summary_created BOOLEAN NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ctxpress_archived_messages (
	event_id UUID NOT NULL REFERENCES ctxpress_compression_events(id) ON DELETE CASCADE,
	message_id UUID NOT NULL,
	position INTEGER NOT NULL,
	original JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (event_id, message_id)
);
`

// PostgresStore implements ctxpress.Archiver using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the archive tables if they do not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%w: %v", ctxpress.ErrStorageError, err)
	}
	return nil
}

// RecordCompression writes the event and its evicted messages atomically.
func (s *PostgresStore) RecordCompression(ctx context.Context, event ctxpress.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ctxpress.ErrStorageError, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ctxpress_compression_events
			(id, strategy, tokens_before, tokens_after, messages_removed, summary_created, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.ID.String(),
		string(event.Strategy),
		event.TokensBefore,
		event.TokensAfter,
		event.MessagesRemoved,
		event.SummaryCreated,
		event.Duration.Milliseconds(),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert event: %v", ctxpress.ErrStorageError, err)
	}

	for i, msg := range event.Archived {
		original, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("%w: marshal message %s: %v", ctxpress.ErrStorageError, msg.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO ctxpress_archived_messages (event_id, message_id, position, original)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, message_id) DO NOTHING
		`, event.ID.String(), msg.ID.String(), i, original)
		if err != nil {
			return fmt.Errorf("%w: insert archived message: %v", ctxpress.ErrStorageError, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ctxpress.ErrStorageError, err)
	}
	return nil
}

// Events returns the most recent compression events, newest first, without
// their archived messages.
func (s *PostgresStore) Events(ctx context.Context, limit int) ([]ctxpress.Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, strategy, tokens_before, tokens_after, messages_removed, summary_created, duration_ms, created_at
		FROM ctxpress_compression_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %v", ctxpress.ErrStorageError, err)
	}
	defer rows.Close()

	var events []ctxpress.Event
	for rows.Next() {
		var (
			id         string
			strategy   string
			durationMS int64
			event      ctxpress.Event
		)
		err := rows.Scan(
			&id,
			&strategy,
			&event.TokensBefore,
			&event.TokensAfter,
			&event.MessagesRemoved,
			&event.SummaryCreated,
			&durationMS,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", ctxpress.ErrStorageError, err)
		}
		event.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: parse event id: %v", ctxpress.ErrStorageError, err)
		}
		event.Strategy = ctxpress.Strategy(strategy)
		event.Duration = time.Duration(durationMS) * time.Millisecond
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate events: %v", ctxpress.ErrStorageError, err)
	}

	return events, nil
}

// ArchivedMessages returns the messages evicted by one compression event in
// their original order.
func (s *PostgresStore) ArchivedMessages(ctx context.Context, eventID uuid.UUID) ([]ctxpress.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT original
		FROM ctxpress_archived_messages
		WHERE event_id = $1
		ORDER BY position
	`, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: query archived messages: %v", ctxpress.ErrStorageError, err)
	}
	defer rows.Close()

	var msgs []ctxpress.Message
	for rows.Next() {
		var original []byte
		if err := rows.Scan(&original); err != nil {
			return nil, fmt.Errorf("%w: scan archived message: %v", ctxpress.ErrStorageError, err)
		}
		var msg ctxpress.Message
		if err := json.Unmarshal(original, &msg); err != nil {
			return nil, fmt.Errorf("%w: unmarshal archived message: %v", ctxpress.ErrStorageError, err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate archived messages: %v", ctxpress.ErrStorageError, err)
	}

	return msgs, nil
}
