package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// AttendanceAggregator sums countable worked hours from the ledger.
type AttendanceAggregator struct {
	attendanceRepo attendance.AttendanceRepository
}

func NewAttendanceAggregator(attendanceRepo attendance.AttendanceRepository) *AttendanceAggregator {
	return &AttendanceAggregator{attendanceRepo: attendanceRepo}
}

// HoursInRange sums hours of present and remote facts in [dateFrom, dateTo].
func (a *AttendanceAggregator) HoursInRange(ctx context.Context, employeeID string, dateFrom, dateTo time.Time) (decimal.Decimal, error) {
	from, to := payroll.Day(dateFrom), payroll.Day(dateTo)
	if from.After(to) {
		return decimal.Zero, attendance.ErrInvalidRange
	}

	facts, err := a.attendanceRepo.ListFacts(ctx, employeeID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list attendance facts: %w", err)
	}
	return sumCounted(facts, from, to)
}

// HoursInWindows reads the ledger once and splits countable hours across
// windows. windows must be ordered and non-overlapping.
func (a *AttendanceAggregator) HoursInWindows(ctx context.Context, employeeID string, windows []payroll.Window) ([]payroll.WindowHours, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	from, to := windows[0].Start, windows[len(windows)-1].End
	facts, err := a.attendanceRepo.ListFacts(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance facts: %w", err)
	}

	out := make([]payroll.WindowHours, 0, len(windows))
	for _, w := range windows {
		hours, err := sumCounted(facts, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		out = append(out, payroll.WindowHours{Window: w, Hours: hours})
	}
	return out, nil
}

func sumCounted(facts []attendance.Fact, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, f := range facts {
		day := payroll.Day(f.Date)
		if day.Before(from) || day.After(to) || !f.PresenceStatus.CountsAsWorked() {
			continue
		}
		if f.WorkedHours.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %s hours on %s", attendance.ErrCorruptFact, f.WorkedHours, day.Format("2006-01-02"))
		}
		total = total.Add(f.WorkedHours)
	}
	return total, nil
}
