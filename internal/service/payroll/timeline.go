package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// RateTimeline joins the append-only rate ledger with the compensation
// profile at resolution time.
type RateTimeline struct {
	rateRepo         payroll.RateRepository
	compensationRepo payroll.CompensationRepository
	now              func() time.Time
}

func NewRateTimeline(rateRepo payroll.RateRepository, compensationRepo payroll.CompensationRepository) *RateTimeline {
	return &RateTimeline{
		rateRepo:         rateRepo,
		compensationRepo: compensationRepo,
		now:              time.Now,
	}
}

// Profile returns the stored profile or the {HOURLY, 0, 0, 0} default.
func (t *RateTimeline) Profile(ctx context.Context, employeeID string) (payroll.CompensationProfile, error) {
	profile, err := t.compensationRepo.GetProfile(ctx, employeeID)
	if errors.Is(err, payroll.ErrCompensationProfileNotFound) {
		return payroll.DefaultProfile(employeeID), nil
	}
	if err != nil {
		return payroll.CompensationProfile{}, fmt.Errorf("load compensation profile: %w", err)
	}
	return profile, nil
}

// Entries returns the employee's rate history, oldest first.
func (t *RateTimeline) Entries(ctx context.Context, employeeID string) ([]payroll.RateEntry, error) {
	entries, err := t.rateRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load rate history: %w", err)
	}
	payroll.SortEntries(entries)
	return entries, nil
}

// EffectiveRate answers "what hourly rate applied on date".
func (t *RateTimeline) EffectiveRate(ctx context.Context, employeeID string, date time.Time) (decimal.Decimal, error) {
	profile, err := t.Profile(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	entries, err := t.Entries(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return payroll.EffectiveRate(entries, profile.HourlyRate, date), nil
}

// RecordRateChange appends a new entry. A second entry for the same
// effective date fails with ErrRateEntryExists.
func (t *RateTimeline) RecordRateChange(ctx context.Context, employeeID string, rate decimal.Decimal, effectiveFrom time.Time, recordedBy string) (payroll.RateEntry, error) {
	entry, err := t.rateRepo.Append(ctx, payroll.RateEntry{
		EmployeeID:    employeeID,
		Rate:          rate,
		EffectiveFrom: payroll.Day(effectiveFrom),
		RecordedAt:    t.now().UTC(),
		RecordedBy:    &recordedBy,
	})
	if err != nil {
		return payroll.RateEntry{}, fmt.Errorf("record rate change: %w", err)
	}
	return entry, nil
}
