package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the read-only ledger port. Both bounds are
// inclusive calendar dates.
type AttendanceRepository interface {
	ListFacts(ctx context.Context, employeeID string, dateFrom, dateTo time.Time) ([]Fact, error)
}
