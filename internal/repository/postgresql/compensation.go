package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type compensationRepositoryImpl struct {
	db *database.DB
}

func NewCompensationRepository(db *database.DB) payroll.CompensationRepository {
	return &compensationRepositoryImpl{db: db}
}

func (r *compensationRepositoryImpl) GetProfile(ctx context.Context, employeeID string) (payroll.CompensationProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, pay_mode, hourly_rate, minute_rate, fixed_salary, updated_at
		FROM compensation_profiles
		WHERE employee_id = $1
	`

	p, err := scanProfile(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.CompensationProfile{}, payroll.ErrCompensationProfileNotFound
		}
		return payroll.CompensationProfile{}, fmt.Errorf("failed to get compensation profile: %w", err)
	}
	return p, nil
}

func (r *compensationRepositoryImpl) UpsertProfile(ctx context.Context, profile payroll.CompensationProfile) (payroll.CompensationProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO compensation_profiles (employee_id, pay_mode, hourly_rate, minute_rate, fixed_salary)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id) DO UPDATE SET
			pay_mode = EXCLUDED.pay_mode,
			hourly_rate = EXCLUDED.hourly_rate,
			minute_rate = EXCLUDED.minute_rate,
			fixed_salary = EXCLUDED.fixed_salary,
			updated_at = NOW()
		RETURNING employee_id, pay_mode, hourly_rate, minute_rate, fixed_salary, updated_at
	`

	p, err := scanProfile(q.QueryRow(ctx, query,
		profile.EmployeeID, string(profile.PayMode), profile.HourlyRate, profile.MinuteRate, profile.FixedSalary,
	))
	if err != nil {
		return payroll.CompensationProfile{}, fmt.Errorf("failed to upsert compensation profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (payroll.CompensationProfile, error) {
	var p payroll.CompensationProfile
	var mode string
	if err := row.Scan(&p.EmployeeID, &mode, &p.HourlyRate, &p.MinuteRate, &p.FixedSalary, &p.UpdatedAt); err != nil {
		return payroll.CompensationProfile{}, err
	}
	parsed, err := payroll.ParsePayMode(mode)
	if err != nil {
		return payroll.CompensationProfile{}, err
	}
	p.PayMode = parsed
	return p, nil
}
