package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = payroll.NewMonth(2026, time.March)

func calculated(employeeID, hours, salary string) payroll.PayrollRecord {
	return payroll.PayrollRecord{
		EmployeeID:   employeeID,
		Month:        march,
		TotalHours:   decimal.RequireFromString(hours),
		TotalSalary:  decimal.RequireFromString(salary),
		Status:       payroll.PayrollStatusCalculated,
		CalculatedAt: time.Now(),
	}
}

func TestPayrollRepository_UpsertOutcomes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.PutEmployee(employee.Employee{ID: "emp-1", FullName: "Ada", Role: user.RoleEmployee, IsActive: true})
	repo := NewPayrollRepository(store)

	created, outcome, err := repo.UpsertCalculated(ctx, calculated("emp-1", "14", "1400"))
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeCreated, outcome)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.EmployeeName)
	assert.Equal(t, "Ada", *created.EmployeeName)

	same, outcome, err := repo.UpsertCalculated(ctx, calculated("emp-1", "14.00", "1400.00"))
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeUnchanged, outcome)
	assert.Equal(t, created.CalculatedAt, same.CalculatedAt)

	updated, outcome, err := repo.UpsertCalculated(ctx, calculated("emp-1", "16", "1600"))
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeUpdated, outcome)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "1600", updated.TotalSalary.String())

	paid, err := repo.MarkPaid(ctx, created.ID, "admin-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, "admin-1", *paid.PaidBy)

	after, outcome, err := repo.UpsertCalculated(ctx, calculated("emp-1", "99", "9900"))
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeSkippedPaid, outcome)
	assert.Equal(t, "1600", after.TotalSalary.String())
	assert.Equal(t, 1, store.RecordCount())
}

func TestPayrollRepository_MarkPaidTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewPayrollRepository(NewStore())

	rec, _, err := repo.UpsertCalculated(ctx, calculated("emp-1", "1", "1"))
	require.NoError(t, err)

	_, err = repo.MarkPaid(ctx, rec.ID, "admin", time.Now())
	require.NoError(t, err)
	_, err = repo.MarkPaid(ctx, rec.ID, "admin", time.Now())
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyPaid)

	_, err = repo.MarkPaid(ctx, "missing", "admin", time.Now())
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

func TestPayrollRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewPayrollRepository(NewStore())

	for _, id := range []string{"emp-2", "emp-1", "emp-3"} {
		_, _, err := repo.UpsertCalculated(ctx, calculated(id, "1", "10"))
		require.NoError(t, err)
	}
	april := calculated("emp-1", "2", "20")
	april.Month = march.Next()
	_, _, err := repo.UpsertCalculated(ctx, april)
	require.NoError(t, err)

	all, err := repo.ListByMonth(ctx, march, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "emp-1", all[0].EmployeeID)

	some, err := repo.ListByMonth(ctx, march, []string{"emp-3"})
	require.NoError(t, err)
	require.Len(t, some, 1)

	none, err := repo.ListByMonth(ctx, march, []string{})
	require.NoError(t, err)
	assert.Empty(t, none)

	history, err := repo.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, march.Next(), history[0].Month)

	_, err = repo.GetByEmployeeMonth(ctx, "emp-9", march)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

func TestRateRepository_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewRateRepository(NewStore())

	_, err := repo.Append(ctx, payroll.RateEntry{EmployeeID: "emp-1", Rate: decimal.NewFromInt(200), EffectiveFrom: time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = repo.Append(ctx, payroll.RateEntry{EmployeeID: "emp-1", Rate: decimal.NewFromInt(100), EffectiveFrom: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	_, err = repo.Append(ctx, payroll.RateEntry{EmployeeID: "emp-1", Rate: decimal.NewFromInt(300), EffectiveFrom: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, payroll.ErrRateEntryExists)

	entries, err := repo.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "100", entries[0].Rate.String())
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), entries[1].EffectiveFrom)
}

func TestAttendanceRepository_InclusiveRange(t *testing.T) {
	store := NewStore()
	store.AddFacts(
		attendance.Fact{EmployeeID: "emp-1", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), WorkedHours: decimal.NewFromInt(8), PresenceStatus: attendance.StatusPresent},
		attendance.Fact{EmployeeID: "emp-1", Date: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), WorkedHours: decimal.NewFromInt(6), PresenceStatus: attendance.StatusRemote},
		attendance.Fact{EmployeeID: "emp-1", Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), WorkedHours: decimal.NewFromInt(5), PresenceStatus: attendance.StatusPresent},
	)
	repo := NewAttendanceRepository(store)

	facts, err := repo.ListFacts(context.Background(), "emp-1", march.First(), march.Last())
	require.NoError(t, err)
	assert.Len(t, facts, 2)
}

const seedYAML = `
employees:
  - id: emp-1
    full_name: Ada Lovelace
    employee_code: "0001-0001"
    role: employee
    department_id: dept-a
  - id: intern-1
    full_name: Ivy
    role: intern
    department_id: dept-a
    active: false
profiles:
  - employee_id: emp-1
    pay_mode: HOURLY
    hourly_rate: "100.00"
rates:
  - employee_id: emp-1
    rate: "120.00"
    effective_from: "2026-03-15"
attendance:
  - employee_id: emp-1
    date: "2026-03-02"
    worked_hours: "8"
    status: present
`

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	ctx := context.Background()
	store := NewStore()
	require.NoError(t, LoadSeedFile(ctx, store, path))

	emp, err := NewEmployeeRepository(store).GetByID(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmployee, emp.Role)
	assert.True(t, emp.IsActive)
	require.NotNil(t, emp.DepartmentID)
	assert.Equal(t, "dept-a", *emp.DepartmentID)

	intern, err := NewEmployeeRepository(store).GetByID(ctx, "intern-1")
	require.NoError(t, err)
	assert.False(t, intern.IsActive)

	active, err := NewEmployeeRepository(store).GetActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	profile, err := NewCompensationRepository(store).GetProfile(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayModeHourly, profile.PayMode)
	assert.Equal(t, "100", profile.HourlyRate.String())

	rates, err := NewRateRepository(store).ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, rates, 1)

	facts, err := NewAttendanceRepository(store).ListFacts(ctx, "emp-1", march.First(), march.Last())
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestLoadSeed_Invalid(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, LoadSeed(ctx, NewStore(), []byte("employees:\n  - id: x\n    role: owner\n")))
	assert.Error(t, LoadSeed(ctx, NewStore(), []byte("profiles:\n  - employee_id: x\n    pay_mode: WEEKLY\n")))
	assert.Error(t, LoadSeed(ctx, NewStore(), []byte("attendance:\n  - employee_id: x\n    date: \"2026-03-01\"\n    status: late\n")))
	assert.Error(t, LoadSeedFile(ctx, NewStore(), filepath.Join(t.TempDir(), "missing.yaml")))
}
