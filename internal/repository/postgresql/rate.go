package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type rateRepositoryImpl struct {
	db *database.DB
}

func NewRateRepository(db *database.DB) payroll.RateRepository {
	return &rateRepositoryImpl{db: db}
}

func (r *rateRepositoryImpl) Append(ctx context.Context, entry payroll.RateEntry) (payroll.RateEntry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return payroll.RateEntry{}, fmt.Errorf("failed to generate rate entry id: %w", err)
		}
		entry.ID = id.String()
	}

	query := `
		INSERT INTO rate_entries (id, employee_id, rate, effective_from, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, employee_id, rate, effective_from, recorded_at, recorded_by
	`

	var out payroll.RateEntry
	err := q.QueryRow(ctx, query,
		entry.ID, entry.EmployeeID, entry.Rate, payroll.Day(entry.EffectiveFrom), entry.RecordedBy,
	).Scan(&out.ID, &out.EmployeeID, &out.Rate, &out.EffectiveFrom, &out.RecordedAt, &out.RecordedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return payroll.RateEntry{}, payroll.ErrRateEntryExists
			}
		}
		return payroll.RateEntry{}, fmt.Errorf("failed to append rate entry: %w", err)
	}
	return out, nil
}

func (r *rateRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.RateEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, rate, effective_from, recorded_at, recorded_by
		FROM rate_entries
		WHERE employee_id = $1
		ORDER BY effective_from ASC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate entries: %w", err)
	}
	defer rows.Close()

	entries := make([]payroll.RateEntry, 0)
	for rows.Next() {
		var e payroll.RateEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Rate, &e.EffectiveFrom, &e.RecordedAt, &e.RecordedBy); err != nil {
			return nil, fmt.Errorf("failed to scan rate entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate entries: %w", err)
	}
	return entries, nil
}
