package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayMode selects how an employee's monthly salary is derived.
type PayMode string

const (
	PayModeHourly      PayMode = "HOURLY"
	PayModeMinute      PayMode = "MINUTE"
	PayModeFixedSalary PayMode = "FIXED_SALARY"
)

func ParsePayMode(s string) (PayMode, error) {
	switch mode := PayMode(strings.ToUpper(strings.TrimSpace(s))); mode {
	case PayModeHourly, PayModeMinute, PayModeFixedSalary:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPayMode, s)
	}
}

// CompensationProfile - current pay configuration of one employee
type CompensationProfile struct {
	EmployeeID  string
	PayMode     PayMode
	HourlyRate  decimal.Decimal // mirrors the latest effective rate entry
	MinuteRate  decimal.Decimal
	FixedSalary decimal.Decimal
	UpdatedAt   time.Time
}

// DefaultProfile is used for employees that were never configured.
func DefaultProfile(employeeID string) CompensationProfile {
	return CompensationProfile{
		EmployeeID:  employeeID,
		PayMode:     PayModeHourly,
		HourlyRate:  decimal.Zero,
		MinuteRate:  decimal.Zero,
		FixedSalary: decimal.Zero,
	}
}

// RateEntry - one hourly rate change, append-only
type RateEntry struct {
	ID            string
	EmployeeID    string
	Rate          decimal.Decimal
	EffectiveFrom time.Time // calendar date, UTC midnight
	RecordedAt    time.Time
	RecordedBy    *string
}

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusCalculated PayrollStatus = "calculated"
	PayrollStatusPaid       PayrollStatus = "paid"

	// PayrollStatusNotCalculated is only ever returned to readers when no
	// record exists for the month. It is never stored.
	PayrollStatusNotCalculated PayrollStatus = "not_calculated"
)

// PayrollRecord - monthly payroll result, unique per (employee, month)
type PayrollRecord struct {
	ID           string
	EmployeeID   string
	Month        Month
	TotalHours   decimal.Decimal
	TotalSalary  decimal.Decimal
	Status       PayrollStatus
	CalculatedAt time.Time
	PaidAt       *time.Time
	PaidBy       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
	DepartmentID *string
}

// ParsePayrollStatus accepts the lifecycle statuses a client may name.
func ParsePayrollStatus(s string) (PayrollStatus, bool) {
	switch status := PayrollStatus(s); status {
	case PayrollStatusCalculated, PayrollStatusPaid, PayrollStatusNotCalculated:
		return status, true
	default:
		return "", false
	}
}

// IsPaid reports whether the record is terminal.
func (r PayrollRecord) IsPaid() bool {
	return r.Status == PayrollStatusPaid
}

// CanTransitionTo enforces CALCULATED -> PAID as the only legal move.
func (r PayrollRecord) CanTransitionTo(next PayrollStatus) error {
	if next != PayrollStatusPaid {
		return ErrInvalidStatusTransition
	}
	if r.IsPaid() {
		return ErrPayrollRecordAlreadyPaid
	}
	if r.Status != PayrollStatusCalculated {
		return ErrInvalidStatusTransition
	}
	return nil
}

// SameTotals reports whether two records carry identical amounts.
func (r PayrollRecord) SameTotals(o PayrollRecord) bool {
	return r.TotalHours.Equal(o.TotalHours) && r.TotalSalary.Equal(o.TotalSalary)
}

// UpsertOutcome describes what a calculated-record write actually did.
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota
	OutcomeUpdated
	OutcomeUnchanged
	OutcomeSkippedPaid
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkippedPaid:
		return "skipped_paid"
	default:
		return "unknown"
	}
}

// Calculation is the pure result of computing one employee for one month.
type Calculation struct {
	EmployeeID  string
	Month       Month
	PayMode     PayMode
	TotalHours  decimal.Decimal
	TotalSalary decimal.Decimal
	Windows     []WindowHours
}

// Record converts the calculation into a CALCULATED record.
func (c Calculation) Record(calculatedAt time.Time) PayrollRecord {
	return PayrollRecord{
		EmployeeID:   c.EmployeeID,
		Month:        c.Month,
		TotalHours:   c.TotalHours,
		TotalSalary:  c.TotalSalary,
		Status:       PayrollStatusCalculated,
		CalculatedAt: calculatedAt,
	}
}
