package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recordSelect = `
	SELECT pr.id, pr.employee_id, pr.month, pr.total_hours, pr.total_salary, pr.status,
		   pr.calculated_at, pr.paid_at, pr.paid_by, pr.created_at, pr.updated_at,
		   e.full_name, e.employee_code, e.department_id
	FROM payroll_records pr
	JOIN employees e ON e.id = pr.employee_id
`

type payrollRepositoryImpl struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepositoryImpl{db: db}
}

// UpsertCalculated relies on the (employee_id, month) unique key. The
// conditional DO UPDATE leaves PAID and unchanged rows untouched, in which
// case no row is returned and the current state is read back.
func (r *payrollRepositoryImpl) UpsertCalculated(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, payroll.UpsertOutcome, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.PayrollRecord{}, 0, fmt.Errorf("failed to generate payroll record id: %w", err)
	}

	query := `
		INSERT INTO payroll_records (id, employee_id, month, total_hours, total_salary, status, calculated_at)
		VALUES ($1, $2, $3, $4, $5, 'calculated', $6)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			total_hours = EXCLUDED.total_hours,
			total_salary = EXCLUDED.total_salary,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = NOW()
		WHERE payroll_records.status <> 'paid'
		  AND (payroll_records.total_hours <> EXCLUDED.total_hours
		       OR payroll_records.total_salary <> EXCLUDED.total_salary)
		RETURNING id, (xmax = 0) AS inserted
	`

	var storedID string
	var inserted bool
	err = q.QueryRow(ctx, query,
		id.String(), record.EmployeeID, record.Month.First(), record.TotalHours, record.TotalSalary, record.CalculatedAt,
	).Scan(&storedID, &inserted)

	switch {
	case err == nil:
		stored, err := r.GetByID(ctx, storedID)
		if err != nil {
			return payroll.PayrollRecord{}, 0, err
		}
		if inserted {
			return stored, payroll.OutcomeCreated, nil
		}
		return stored, payroll.OutcomeUpdated, nil

	case errors.Is(err, pgx.ErrNoRows):
		stored, err := r.GetByEmployeeMonth(ctx, record.EmployeeID, record.Month)
		if err != nil {
			return payroll.PayrollRecord{}, 0, err
		}
		if stored.IsPaid() {
			return stored, payroll.OutcomeSkippedPaid, nil
		}
		return stored, payroll.OutcomeUnchanged, nil

	default:
		return payroll.PayrollRecord{}, 0, fmt.Errorf("failed to upsert payroll record: %w", err)
	}
}

func (r *payrollRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+` WHERE pr.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepositoryImpl) GetByEmployeeMonth(ctx context.Context, employeeID string, month payroll.Month) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+` WHERE pr.employee_id = $1 AND pr.month = $2`, employeeID, month.First()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepositoryImpl) ListByMonth(ctx context.Context, month payroll.Month, employeeIDs []string) ([]payroll.PayrollRecord, error) {
	if employeeIDs != nil && len(employeeIDs) == 0 {
		return []payroll.PayrollRecord{}, nil
	}

	query := recordSelect + ` WHERE pr.month = $1`
	args := []interface{}{month.First()}
	if employeeIDs != nil {
		query += ` AND pr.employee_id = ANY($2)`
		args = append(args, employeeIDs)
	}
	query += ` ORDER BY e.full_name, pr.employee_id`

	return r.list(ctx, query, args...)
}

func (r *payrollRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.PayrollRecord, error) {
	return r.list(ctx, recordSelect+` WHERE pr.employee_id = $1 ORDER BY pr.month DESC`, employeeID)
}

// MarkPaid locks the row so two concurrent finalizations cannot both succeed.
func (r *payrollRepositoryImpl) MarkPaid(ctx context.Context, id string, paidBy string, paidAt time.Time) (payroll.PayrollRecord, error) {
	var out payroll.PayrollRecord
	err := NewTxManager(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		var status string
		err := q.QueryRow(ctx, `SELECT status FROM payroll_records WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payroll.ErrPayrollRecordNotFound
			}
			return fmt.Errorf("failed to lock payroll record: %w", err)
		}

		current := payroll.PayrollRecord{Status: payroll.PayrollStatus(status)}
		if err := current.CanTransitionTo(payroll.PayrollStatusPaid); err != nil {
			return err
		}

		_, err = q.Exec(ctx, `
			UPDATE payroll_records
			SET status = 'paid', paid_at = $2, paid_by = $3, updated_at = NOW()
			WHERE id = $1
		`, id, paidAt, paidBy)
		if err != nil {
			return fmt.Errorf("failed to mark payroll record paid: %w", err)
		}

		out, err = r.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	return out, nil
}

func (r *payrollRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll records: %w", err)
	}
	defer rows.Close()

	records := make([]payroll.PayrollRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var month time.Time
	var status string
	var name, code string
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &month, &rec.TotalHours, &rec.TotalSalary, &status,
		&rec.CalculatedAt, &rec.PaidAt, &rec.PaidBy, &rec.CreatedAt, &rec.UpdatedAt,
		&name, &code, &rec.DepartmentID,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	rec.Month = payroll.MonthOf(month)
	rec.Status = payroll.PayrollStatus(status)
	rec.EmployeeName = &name
	rec.EmployeeCode = &code
	return rec, nil
}
