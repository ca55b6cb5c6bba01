package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type attendanceRepositoryImpl struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{store: store}
}

func (r *attendanceRepositoryImpl) ListFacts(ctx context.Context, employeeID string, dateFrom, dateTo time.Time) ([]attendance.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := payroll.Day(dateFrom), payroll.Day(dateTo)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]attendance.Fact, 0)
	for _, f := range r.store.facts[employeeID] {
		if f.Date.Before(from) || f.Date.After(to) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
