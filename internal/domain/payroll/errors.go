package payroll

import "errors"

var (
	ErrPayrollRecordNotFound       = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyPaid    = errors.New("payroll record already paid, cannot modify")
	ErrInvalidStatusTransition     = errors.New("invalid payroll status transition")
	ErrInvalidPeriod               = errors.New("invalid payroll period")
	ErrInvalidPayMode              = errors.New("invalid pay mode")
	ErrRateEntryExists             = errors.New("rate entry already exists for this effective date")
	ErrCompensationProfileNotFound = errors.New("compensation profile not found")
	ErrRecalculationInProgress     = errors.New("payroll recalculation already in progress for this month")
)
