package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PayrollHandler interface {
	// Self service
	GetMyRecord(w http.ResponseWriter, r *http.Request)
	GetMyHistory(w http.ResponseWriter, r *http.Request)

	// Records
	ListRecords(w http.ResponseWriter, r *http.Request)
	ExportRecords(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
	UpdateRecordStatus(w http.ResponseWriter, r *http.Request)

	// Compensation
	SetCompensation(w http.ResponseWriter, r *http.Request)
	GetRateHistory(w http.ResponseWriter, r *http.Request)

	// Recalculation
	Recalculate(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	now            func() time.Time
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService, now: time.Now}
}

// monthParam reads ?month=YYYY-MM. An empty value falls back to the current
// month only when allowDefault is set.
func (h *payrollHandlerImpl) monthParam(r *http.Request, allowDefault bool) (payroll.Month, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		if allowDefault {
			return payroll.MonthOf(h.now()), nil
		}
		return payroll.Month{}, validator.ValidationErrors{{Field: "month", Message: "month is required"}}
	}

	month, err := payroll.ParseMonth(raw)
	if err != nil {
		return payroll.Month{}, validator.ValidationErrors{{Field: "month", Message: "month must be in YYYY-MM format"}}
	}
	return month, nil
}

// ========== SELF SERVICE ==========

func (h *payrollHandlerImpl) GetMyRecord(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r, true)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetMyRecord(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetMyHistory(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetMyHistory(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RECORDS ==========

func (h *payrollHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r, false)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ListRecords(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ExportRecords(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r, false)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data, err := h.payrollService.ExportRecords(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, xlsxContentType, fmt.Sprintf("payroll-%s.xlsx", month), data)
}

func (h *payrollHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	month, err := h.monthParam(r, false)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetSummary(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateRecordStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll record ID is required", nil)
		return
	}

	var req payroll.UpdateRecordStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdateRecordStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record marked as paid", result)
}

// ========== COMPENSATION ==========

func (h *payrollHandlerImpl) SetCompensation(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	var req payroll.SetCompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.SetCompensation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Compensation updated", result)
}

func (h *payrollHandlerImpl) GetRateHistory(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	result, err := h.payrollService.GetRateHistory(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RECALCULATION ==========

func (h *payrollHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req payroll.RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Recalculate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Payroll recalculated for %s", result.Month), result)
}
