package payroll

import "context"

// PayrollService is the actor-facing surface. The acting user is taken
// from the bearer token claims carried by ctx.
type PayrollService interface {
	GetMyRecord(ctx context.Context, month Month) (PayrollRecordResponse, error)
	GetMyHistory(ctx context.Context) ([]PayrollRecordResponse, error)

	ListRecords(ctx context.Context, month Month) ([]PayrollRecordResponse, error)
	ExportRecords(ctx context.Context, month Month) ([]byte, error)
	GetSummary(ctx context.Context, month Month) (PayrollSummaryResponse, error)

	SetCompensation(ctx context.Context, req SetCompensationRequest) (CompensationResponse, error)
	GetRateHistory(ctx context.Context, employeeID string) ([]RateEntryResponse, error)

	Recalculate(ctx context.Context, req RecalculateRequest) (RecalculateResponse, error)
	UpdateRecordStatus(ctx context.Context, req UpdateRecordStatusRequest) (PayrollRecordResponse, error)
}
