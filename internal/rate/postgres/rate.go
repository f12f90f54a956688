package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/tdy-voucher/internal/core/calendar"
	rateDatamodel "github.com/frahmantamala/tdy-voucher/internal/core/datamodel/rate"
	"github.com/frahmantamala/tdy-voucher/internal/rate"
)

const lookupQuery = `
SELECT id, locality, mie_rate_cents, lodging_cap_cents, mileage_rate_cents, effective_from, effective_to, created_at
FROM perdiem_rates
WHERE locality = $1
  AND effective_from <= $2
  AND (effective_to IS NULL OR effective_to >= $2)
ORDER BY effective_from DESC
LIMIT 1`

// RateTable reads the effective-dated perdiem_rates table.
type RateTable struct {
	db *sqlx.DB
}

func NewRateTable(db *sqlx.DB) *RateTable {
	return &RateTable{db: db}
}

func (t *RateTable) Lookup(ctx context.Context, locality string, date calendar.Date) (rate.Snapshot, error) {
	var row rateDatamodel.PerDiemRate
	err := t.db.GetContext(ctx, &row, lookupQuery, locality, date.Time())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rate.Snapshot{}, rate.ErrNotListed
		}
		return rate.Snapshot{}, fmt.Errorf("query perdiem rate: %w", err)
	}
	return rate.FromDataModel(&row, date), nil
}

// Upsert closes the currently open row for the locality and inserts the new one,
// so the table keeps its history.
func (t *RateTable) Upsert(ctx context.Context, r *rateDatamodel.PerDiemRate) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE perdiem_rates SET effective_to = $2 - INTERVAL '1 day'
		 WHERE locality = $1 AND effective_to IS NULL AND effective_from < $2`,
		r.Locality, r.EffectiveFrom); err != nil {
		return fmt.Errorf("close previous rate: %w", err)
	}

	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO perdiem_rates (locality, mie_rate_cents, lodging_cap_cents, mileage_rate_cents, effective_from, effective_to)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.Locality, r.MIERateCents, r.LodgingCapCents, r.MileageRateCents, r.EffectiveFrom, r.EffectiveTo,
	).Scan(&r.ID); err != nil {
		return fmt.Errorf("insert rate: %w", err)
	}

	return tx.Commit()
}
