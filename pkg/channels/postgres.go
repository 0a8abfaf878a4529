package channels

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Persister is the durable backend for channel configuration.
type Persister interface {
	Upsert(ctx context.Context, ch Channel) error
	ListAll(ctx context.Context) ([]Channel, error)
}

// PostgresPersister stores rows in the delivery_channels table.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps an existing pool.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// Upsert writes the channel row keyed by id.
func (p *PostgresPersister) Upsert(ctx context.Context, ch Channel) error {
	var settings []byte
	if len(ch.Settings) > 0 {
		var err error
		settings, err = json.Marshal(ch.Settings)
		if err != nil {
			return fmt.Errorf("marshal channel settings: %w", err)
		}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO delivery_channels (id, kind, enabled, settings, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			enabled = EXCLUDED.enabled,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at`,
		ch.ID, string(ch.Kind), ch.Enabled, settings, ch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert channel: %w", err)
	}
	return nil
}

// ListAll loads every persisted channel row.
func (p *PostgresPersister) ListAll(ctx context.Context) ([]Channel, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, kind, enabled, settings, updated_at FROM delivery_channels`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var (
			ch       Channel
			kind     string
			settings []byte
		)
		if err := rows.Scan(&ch.ID, &kind, &ch.Enabled, &settings, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Kind = Kind(kind)
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &ch.Settings); err != nil {
				return nil, fmt.Errorf("unmarshal channel settings: %w", err)
			}
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}
