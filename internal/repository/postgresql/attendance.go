package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

func (r *attendanceRepositoryImpl) ListFacts(ctx context.Context, employeeID string, dateFrom, dateTo time.Time) ([]attendance.Fact, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, date, worked_hours, presence_status
		FROM attendance_facts
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance facts: %w", err)
	}
	defer rows.Close()

	facts := make([]attendance.Fact, 0)
	for rows.Next() {
		var f attendance.Fact
		var status string
		if err := rows.Scan(&f.EmployeeID, &f.Date, &f.WorkedHours, &status); err != nil {
			return nil, fmt.Errorf("failed to scan attendance fact: %w", err)
		}
		f.PresenceStatus, err = attendance.ParsePresenceStatus(status)
		if err != nil {
			return nil, fmt.Errorf("employee %s on %s: %w", f.EmployeeID, f.Date.Format(time.DateOnly), err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance facts: %w", err)
	}
	return facts, nil
}
