package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPENSATION DTOs ==========

// SetCompensationRequest changes an employee's pay configuration. A
// HourlyRate appends a rate entry effective from EffectiveFrom (today when
// omitted). At least one field is required.
type SetCompensationRequest struct {
	EmployeeID    string           `json:"-"`
	PayMode       *string          `json:"pay_mode,omitempty"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate,omitempty"`
	MinuteRate    *decimal.Decimal `json:"minute_rate,omitempty"`
	FixedSalary   *decimal.Decimal `json:"fixed_salary,omitempty"`
	EffectiveFrom *string          `json:"effective_from,omitempty"`
}

func (r *SetCompensationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.PayMode == nil && r.HourlyRate == nil && r.MinuteRate == nil && r.FixedSalary == nil {
		errs = append(errs, validator.ValidationError{Field: "compensation", Message: "at least one of pay_mode, hourly_rate, minute_rate, fixed_salary is required"})
	}
	if r.PayMode != nil {
		if _, err := ParsePayMode(*r.PayMode); err != nil {
			errs = append(errs, validator.ValidationError{Field: "pay_mode", Message: "must be one of HOURLY, MINUTE, FIXED_SALARY"})
		}
	}
	if r.HourlyRate != nil && !validator.IsValidMoney(*r.HourlyRate) {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "must be non-negative with at most two decimals"})
	}
	if r.MinuteRate != nil && !validator.IsValidMoney(*r.MinuteRate) {
		errs = append(errs, validator.ValidationError{Field: "minute_rate", Message: "must be non-negative with at most two decimals"})
	}
	if r.FixedSalary != nil && !validator.IsValidMoney(*r.FixedSalary) {
		errs = append(errs, validator.ValidationError{Field: "fixed_salary", Message: "must be non-negative with at most two decimals"})
	}
	if r.EffectiveFrom != nil {
		if r.HourlyRate == nil {
			errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "only applies together with hourly_rate"})
		} else if _, ok := validator.IsValidDate(*r.EffectiveFrom); !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be in YYYY-MM-DD format"})
		}
	}

	return errs.OrNil()
}

// ValidateProfile rejects a merged profile whose mode lacks its amount.
func ValidateProfile(p CompensationProfile) error {
	var errs validator.ValidationErrors

	switch p.PayMode {
	case PayModeMinute:
		if !p.MinuteRate.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "minute_rate", Message: "is required for MINUTE pay mode"})
		}
	case PayModeFixedSalary:
		if !p.FixedSalary.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "fixed_salary", Message: "is required for FIXED_SALARY pay mode"})
		}
	}

	return errs.OrNil()
}

type CompensationProfileResponse struct {
	EmployeeID  string  `json:"employee_id"`
	PayMode     string  `json:"pay_mode"`
	HourlyRate  Amount  `json:"hourly_rate"`
	MinuteRate  Amount  `json:"minute_rate"`
	FixedSalary Amount  `json:"fixed_salary"`
	UpdatedAt   *string `json:"updated_at,omitempty"`
}

type RateEntryResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	Rate          Amount  `json:"rate"`
	EffectiveFrom string  `json:"effective_from"`
	RecordedAt    string  `json:"recorded_at"`
	RecordedBy    *string `json:"recorded_by,omitempty"`
}

type CompensationResponse struct {
	Profile     CompensationProfileResponse `json:"profile"`
	RateHistory []RateEntryResponse         `json:"rate_history"`
}

// ========== RECALCULATION DTOs ==========

type RecalculateRequest struct {
	Month string `json:"month"`
}

func (r *RecalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "is required"})
	} else if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be in YYYY-MM format"})
	}

	return errs.OrNil()
}

type EmployeeFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type RecalculateResponse struct {
	Month       string            `json:"month"`
	Created     int               `json:"created"`
	Updated     int               `json:"updated"`
	SkippedPaid int               `json:"skipped_paid"`
	Failed      []EmployeeFailure `json:"failed"`
}

// ========== PAYROLL RECORD DTOs ==========

type UpdateRecordStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

func (r *UpdateRecordStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if validator.IsEmpty(r.Status) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "is required"})
	} else if _, ok := ParsePayrollStatus(r.Status); !ok {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of 'calculated', 'paid', 'not_calculated'"})
	}

	return errs.OrNil()
}

type PayrollRecordResponse struct {
	ID           string  `json:"id,omitempty"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	EmployeeCode string  `json:"employee_code,omitempty"`
	Month        string  `json:"month"`
	TotalHours   Amount  `json:"total_hours"`
	TotalSalary  Amount  `json:"total_salary"`
	Status       string  `json:"status"`
	CalculatedAt *string `json:"calculated_at,omitempty"`
	PaidAt       *string `json:"paid_at,omitempty"`
	PaidBy       *string `json:"paid_by,omitempty"`
}

type PayrollSummaryResponse struct {
	Month            string `json:"month"`
	Headcount        int    `json:"headcount"`
	TotalPayrollFund Amount `json:"total_payroll_fund"`
	AverageSalary    Amount `json:"average_salary"`
	TotalHours       Amount `json:"total_hours"`
	CalculatedCount  int    `json:"calculated_count"`
	PaidCount        int    `json:"paid_count"`
}

// ========== MAPPERS ==========

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func NewPayrollRecordResponse(r PayrollRecord) PayrollRecordResponse {
	resp := PayrollRecordResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Month:        r.Month.String(),
		TotalHours:   NewAmount(r.TotalHours),
		TotalSalary:  NewAmount(r.TotalSalary),
		Status:       string(r.Status),
		CalculatedAt: formatTime(r.CalculatedAt),
		PaidBy:       r.PaidBy,
	}
	if r.EmployeeName != nil {
		resp.EmployeeName = *r.EmployeeName
	}
	if r.EmployeeCode != nil {
		resp.EmployeeCode = *r.EmployeeCode
	}
	if r.PaidAt != nil {
		resp.PaidAt = formatTime(*r.PaidAt)
	}
	return resp
}

// NewPlaceholderResponse is returned for a month that has not been calculated.
func NewPlaceholderResponse(employeeID string, month Month) PayrollRecordResponse {
	return PayrollRecordResponse{
		EmployeeID:  employeeID,
		Month:       month.String(),
		TotalHours:  NewAmount(decimal.Zero),
		TotalSalary: NewAmount(decimal.Zero),
		Status:      string(PayrollStatusNotCalculated),
	}
}

func NewCompensationProfileResponse(p CompensationProfile) CompensationProfileResponse {
	return CompensationProfileResponse{
		EmployeeID:  p.EmployeeID,
		PayMode:     string(p.PayMode),
		HourlyRate:  NewAmount(p.HourlyRate),
		MinuteRate:  NewAmount(p.MinuteRate),
		FixedSalary: NewAmount(p.FixedSalary),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func NewRateEntryResponses(entries []RateEntry) []RateEntryResponse {
	out := make([]RateEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, RateEntryResponse{
			ID:            e.ID,
			EmployeeID:    e.EmployeeID,
			Rate:          NewAmount(e.Rate),
			EffectiveFrom: e.EffectiveFrom.Format("2006-01-02"),
			RecordedAt:    e.RecordedAt.UTC().Format(time.RFC3339),
			RecordedBy:    e.RecordedBy,
		})
	}
	return out
}
