package alerts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Persister is the durable backend for alert state.
type Persister interface {
	Upsert(ctx context.Context, a Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]Alert, error)
}

// PostgresPersister stores alerts in the alerts table.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

// NewPostgresPersister wraps an existing pool.
func NewPostgresPersister(pool *pgxpool.Pool) *PostgresPersister {
	return &PostgresPersister{pool: pool}
}

// Upsert writes the full alert row keyed by id.
func (p *PostgresPersister) Upsert(ctx context.Context, a Alert) error {
	var baseline *decimal.Decimal
	if !a.Baseline.IsZero() {
		baseline = &a.Baseline
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO alerts (
			id, user_id, instrument_id, condition_kind, target_value,
			baseline, state, current_value, created_at, updated_at, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			baseline = EXCLUDED.baseline,
			state = EXCLUDED.state,
			current_value = EXCLUDED.current_value,
			updated_at = EXCLUDED.updated_at,
			triggered_at = EXCLUDED.triggered_at`,
		a.ID, a.UserID, a.InstrumentID, string(a.Condition), a.Target,
		baseline, string(a.State), a.CurrentValue, a.CreatedAt, a.UpdatedAt,
		a.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert alert: %w", err)
	}
	return nil
}

// Delete removes the row. Already-deleted rows are a no-op.
func (p *PostgresPersister) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

// ListAll loads every persisted alert for startup reconciliation.
func (p *PostgresPersister) ListAll(ctx context.Context) ([]Alert, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, instrument_id, condition_kind, target_value,
		       baseline, state, current_value, created_at, updated_at, triggered_at
		FROM alerts
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var (
			a            Alert
			condition    string
			state        string
			baseline     *decimal.Decimal
			currentValue *decimal.Decimal
		)
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.InstrumentID, &condition, &a.Target,
			&baseline, &state, &currentValue, &a.CreatedAt, &a.UpdatedAt,
			&a.TriggeredAt,
		); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Condition = ConditionKind(condition)
		a.State = State(state)
		if baseline != nil {
			a.Baseline = *baseline
		}
		if currentValue != nil {
			a.CurrentValue = *currentValue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

// Load seeds the registry from persisted state, for startup.
func (r *Registry) Load(alertList []Alert) {
	for _, a := range alertList {
		if _, exists := r.lookup(a.ID); exists {
			continue
		}
		r.add(a)
	}
}
