package prefs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Persister is the durable backend for preference rows.
type Persister interface {
	Upsert(ctx context.Context, p Preference) error
	ListAll(ctx context.Context) ([]Preference, error)
}

// PostgresPersister stores rows in the notification_preferences table.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps an existing pool.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// Upsert writes the full row keyed by (user_id, type_id).
func (p *PostgresPersister) Upsert(ctx context.Context, pref Preference) error {
	var (
		qhEnabled bool
		qhStart   *int
		qhEnd     *int
		qhTZ      *string
	)
	if pref.QuietHours != nil {
		qhEnabled = pref.QuietHours.Enabled
		qhStart = &pref.QuietHours.StartMinute
		qhEnd = &pref.QuietHours.EndMinute
		if pref.QuietHours.Timezone != "" {
			qhTZ = &pref.QuietHours.Timezone
		}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO notification_preferences (
			user_id, type_id, enabled, channels,
			quiet_hours_enabled, quiet_hours_start, quiet_hours_end, quiet_hours_tz,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, type_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			channels = EXCLUDED.channels,
			quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			quiet_hours_tz = EXCLUDED.quiet_hours_tz,
			updated_at = EXCLUDED.updated_at`,
		pref.UserID, pref.TypeID, pref.Enabled, pref.Channels,
		qhEnabled, qhStart, qhEnd, qhTZ, pref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// ListAll loads every persisted preference row for startup seeding.
func (p *PostgresPersister) ListAll(ctx context.Context) ([]Preference, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id, type_id, enabled, channels,
		       quiet_hours_enabled, quiet_hours_start, quiet_hours_end, quiet_hours_tz,
		       updated_at
		FROM notification_preferences`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var out []Preference
	for rows.Next() {
		var (
			pref      Preference
			qhEnabled bool
			qhStart   *int
			qhEnd     *int
			qhTZ      *string
		)
		if err := rows.Scan(
			&pref.UserID, &pref.TypeID, &pref.Enabled, &pref.Channels,
			&qhEnabled, &qhStart, &qhEnd, &qhTZ, &pref.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		if qhStart != nil && qhEnd != nil {
			qh := QuietHours{Enabled: qhEnabled, StartMinute: *qhStart, EndMinute: *qhEnd}
			if qhTZ != nil {
				qh.Timezone = *qhTZ
			}
			pref.QuietHours = &qh
		}
		out = append(out, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return out, nil
}
