package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Persister is the durable backend behind the write-behind journal.
type Persister interface {
	Upsert(ctx context.Context, n Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]Notification, error)
}

// PostgresPersister stores notifications in the notifications table.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps an existing pool.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// Upsert writes the full notification row, replacing any previous state
// for the same id. Journal replays make this path naturally repeatable.
func (p *PostgresPersister) Upsert(ctx context.Context, n Notification) error {
	var payload []byte
	if n.Payload.Kind != PayloadNone {
		var err error
		payload, err = json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO notifications (
			id, user_id, type_id, category, priority, title, body,
			payload, channels, read, read_at, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			payload = EXCLUDED.payload,
			channels = EXCLUDED.channels,
			read = EXCLUDED.read,
			read_at = EXCLUDED.read_at,
			expires_at = EXCLUDED.expires_at`,
		n.ID, n.UserID, n.Type, string(n.Category), string(n.Priority),
		n.Title, n.Message, payload, n.Channels, n.Read, n.ReadAt,
		n.CreatedAt, n.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

// Delete removes the row. Deleting an already-deleted row is a no-op.
func (p *PostgresPersister) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// ListAll loads every persisted notification, oldest first, for startup
// reconciliation into the in-memory store.
func (p *PostgresPersister) ListAll(ctx context.Context) ([]Notification, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, type_id, category, priority, title, body,
		       payload, channels, read, read_at, created_at, expires_at
		FROM notifications
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n        Notification
			category string
			priority string
			payload  []byte
		)
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &category, &priority, &n.Title,
			&n.Message, &payload, &n.Channels, &n.Read, &n.ReadAt,
			&n.CreatedAt, &n.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Category = Category(category)
		n.Priority = Priority(priority)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
