package user

import "errors"

var (
	ErrUnknownRole             = errors.New("unknown role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrOutOfScope              = errors.New("target employee is outside of your scope")
	ErrSelfRateChange          = errors.New("you cannot change your own rate")
	ErrExcludedFromPayroll     = errors.New("role is excluded from payroll")
	ErrInactiveAccount         = errors.New("account is not active")
)
