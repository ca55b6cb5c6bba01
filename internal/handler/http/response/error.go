package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Authentication
	case errors.Is(err, jwt.ErrInvalidClaims):
		Unauthorized(w, "Invalid access token")

	// Authorization
	case errors.Is(err, user.ErrSelfRateChange):
		Forbidden(w, "You cannot change your own rate")
	case errors.Is(err, user.ErrExcludedFromPayroll):
		Forbidden(w, "Excluded from payroll")
	case errors.Is(err, user.ErrOutOfScope):
		Forbidden(w, "Employee is outside your scope")
	case errors.Is(err, user.ErrInactiveAccount):
		Forbidden(w, "Account is inactive")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")

	// Conflicts
	case errors.Is(err, payroll.ErrRateEntryExists):
		Conflict(w, "A rate entry already exists for this effective date")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, "Payroll record already paid")
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		Conflict(w, "Invalid payroll status transition")
	case errors.Is(err, payroll.ErrRecalculationInProgress):
		Conflict(w, "Payroll recalculation already in progress for this month")

	// Bad input that slipped past request validation
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrInvalidPayMode), errors.Is(err, attendance.ErrInvalidRange):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, context.Canceled):
		slog.Warn("request cancelled", "error", err)
		writeJSON(w, 499, Response{
			Success: false,
			Error:   &ErrorDetail{Code: "REQUEST_CANCELLED", Message: "Request cancelled"},
		})

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
