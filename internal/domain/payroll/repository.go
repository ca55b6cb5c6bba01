package payroll

import (
	"context"
	"time"
)

// PayrollRepository persists monthly records, unique per (employee, month).
type PayrollRepository interface {
	// UpsertCalculated creates the record, overwrites its totals when they
	// differ, or leaves it alone when unchanged or PAID. The returned record
	// is the stored state after the call.
	UpsertCalculated(ctx context.Context, record PayrollRecord) (PayrollRecord, UpsertOutcome, error)
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	GetByEmployeeMonth(ctx context.Context, employeeID string, month Month) (PayrollRecord, error)
	// ListByMonth returns records for month. A nil employeeIDs means all.
	ListByMonth(ctx context.Context, month Month, employeeIDs []string) ([]PayrollRecord, error)
	// ListByEmployee returns every record of the employee, newest month first.
	ListByEmployee(ctx context.Context, employeeID string) ([]PayrollRecord, error)
	// MarkPaid moves a CALCULATED record to PAID exactly once.
	MarkPaid(ctx context.Context, id string, paidBy string, paidAt time.Time) (PayrollRecord, error)
}

// RateRepository is the append-only hourly rate ledger.
type RateRepository interface {
	// Append fails with ErrRateEntryExists on a duplicate effective date.
	Append(ctx context.Context, entry RateEntry) (RateEntry, error)
	// ListByEmployee returns entries ordered by EffectiveFrom ascending.
	ListByEmployee(ctx context.Context, employeeID string) ([]RateEntry, error)
}

type CompensationRepository interface {
	GetProfile(ctx context.Context, employeeID string) (CompensationProfile, error)
	UpsertProfile(ctx context.Context, profile CompensationProfile) (CompensationProfile, error)
}
