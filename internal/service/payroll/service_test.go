package payroll

import (
	"bytes"
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type org struct {
	superAdmin employee.Employee
	admin      employee.Employee
	deptAdminA employee.Employee
	managerA   employee.Employee
	employeeA  employee.Employee
	employeeA2 employee.Employee
	employeeB  employee.Employee
	internA    employee.Employee
}

func (f *fixture) org(t *testing.T) org {
	o := org{
		superAdmin: f.employee("super", user.RoleSuperAdmin, "hq"),
		admin:      f.employee("admin", user.RoleAdmin, "hq"),
		deptAdminA: f.employee("da-a", user.RoleDepartmentAdmin, "dept-a"),
		managerA:   f.employee("mgr-a", user.RoleManager, "dept-a"),
		employeeA:  f.employee("emp-a", user.RoleEmployee, "dept-a"),
		employeeA2: f.employee("emp-a2", user.RoleEmployee, "dept-a"),
		employeeB:  f.employee("emp-b", user.RoleEmployee, "dept-b"),
		internA:    f.employee("int-a", user.RoleIntern, "dept-a"),
	}
	for _, id := range []string{"super", "admin", "da-a", "mgr-a", "emp-a", "emp-a2", "emp-b", "int-a"} {
		f.profile(t, hourly(id, "100"))
		f.worked(id, 2, "8", attendance.StatusPresent)
	}
	return o
}

func (f *fixture) recalculate(t *testing.T, actor employee.Employee) payroll.RecalculateResponse {
	t.Helper()
	result, err := f.svc.Recalculate(f.as(t, actor), payroll.RecalculateRequest{Month: "2026-03"})
	require.NoError(t, err)
	return result
}

func TestGetMyRecord(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)

	t.Run("placeholder before calculation", func(t *testing.T) {
		resp, err := f.svc.GetMyRecord(f.as(t, o.employeeA), march)
		require.NoError(t, err)
		assert.Equal(t, string(payroll.PayrollStatusNotCalculated), resp.Status)
		assert.True(t, resp.TotalSalary.IsZero())
		assert.Equal(t, "emp-a", resp.EmployeeID)
		assert.Equal(t, 0, f.store.RecordCount())
	})

	f.recalculate(t, o.admin)

	t.Run("calculated record", func(t *testing.T) {
		resp, err := f.svc.GetMyRecord(f.as(t, o.employeeA), march)
		require.NoError(t, err)
		assert.Equal(t, "calculated", resp.Status)
		assert.Equal(t, "800.00", resp.TotalSalary.StringFixed(2))
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("managers see their own", func(t *testing.T) {
		resp, err := f.svc.GetMyRecord(f.as(t, o.managerA), march)
		require.NoError(t, err)
		assert.Equal(t, "mgr-a", resp.EmployeeID)
	})

	t.Run("interns are excluded", func(t *testing.T) {
		_, err := f.svc.GetMyRecord(f.as(t, o.internA), march)
		assert.ErrorIs(t, err, user.ErrExcludedFromPayroll)
		_, err = f.svc.GetMyHistory(f.as(t, o.internA))
		assert.ErrorIs(t, err, user.ErrExcludedFromPayroll)
	})
}

func TestGetMyHistory_NewestFirst(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	ctx := context.Background()

	_, err := f.calculator.RecalculateMonth(ctx, march, "admin")
	require.NoError(t, err)
	_, err = f.calculator.RecalculateMonth(ctx, march.Next(), "admin")
	require.NoError(t, err)

	history, err := f.svc.GetMyHistory(f.as(t, o.employeeA))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-04", history[0].Month)
	assert.Equal(t, "2026-03", history[1].Month)
}

func TestUnknownActorIsForbidden(t *testing.T) {
	f := newFixture(t)
	ghost := employee.Employee{ID: "ghost", Role: user.RoleAdmin}

	_, err := f.svc.GetMyRecord(f.as(t, ghost), march)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestMissingTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetMyRecord(context.Background(), march)
	assert.ErrorIs(t, err, jwt.ErrInvalidClaims)
}

func TestListRecords_ScopedByTier(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)

	ids := func(rs []payroll.PayrollRecordResponse) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.EmployeeID)
		}
		return out
	}

	all, err := f.svc.ListRecords(f.as(t, o.admin), march)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"super", "admin", "da-a", "mgr-a", "emp-a", "emp-a2", "emp-b"}, ids(all))

	scoped, err := f.svc.ListRecords(f.as(t, o.deptAdminA), march)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"emp-a", "emp-a2"}, ids(scoped))
	require.NotEmpty(t, scoped)
	assert.Equal(t, "Employee emp-a", scoped[0].EmployeeName)

	_, err = f.svc.ListRecords(f.as(t, o.employeeA), march)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = f.svc.ListRecords(f.as(t, o.internA), march)
	assert.ErrorIs(t, err, user.ErrExcludedFromPayroll)
}

func TestListRecords_HidesEmployeesDemotedToExcludedRole(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)

	demoted := o.employeeB
	demoted.Role = user.RoleIntern
	f.store.PutEmployee(demoted)

	all, err := f.svc.ListRecords(f.as(t, o.admin), march)
	require.NoError(t, err)
	for _, r := range all {
		assert.NotEqual(t, o.employeeB.ID, r.EmployeeID)
	}
	assert.Len(t, all, 6)

	summary, err := f.svc.GetSummary(f.as(t, o.superAdmin), march)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Headcount)
}

func TestGetSummary(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.worked("emp-a2", 3, "4", attendance.StatusRemote)
	f.recalculate(t, o.admin)

	scoped, err := f.svc.GetSummary(f.as(t, o.deptAdminA), march)
	require.NoError(t, err)
	assert.Equal(t, 2, scoped.Headcount)
	assert.Equal(t, "2000.00", scoped.TotalPayrollFund.StringFixed(2))
	assert.Equal(t, "1000.00", scoped.AverageSalary.StringFixed(2))
	assert.Equal(t, "20.00", scoped.TotalHours.StringFixed(2))
	assert.Equal(t, 2, scoped.CalculatedCount)

	top, err := f.svc.GetSummary(f.as(t, o.superAdmin), march)
	require.NoError(t, err)
	assert.Equal(t, 7, top.Headcount)

	empty, err := f.svc.GetSummary(f.as(t, o.admin), payroll.NewMonth(2025, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Headcount)
	assert.True(t, empty.AverageSalary.IsZero())
}

func TestExportRecords(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)

	data, err := f.svc.ExportRecords(f.as(t, o.deptAdminA), march)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = f.svc.ExportRecords(f.as(t, o.managerA), march)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestRecalculate_TopTierOnly(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)

	for _, actor := range []employee.Employee{o.deptAdminA, o.managerA, o.employeeA} {
		_, err := f.svc.Recalculate(f.as(t, actor), payroll.RecalculateRequest{Month: "2026-03"})
		assert.ErrorIs(t, err, user.ErrInsufficientPermissions, actor.ID)
	}
	_, err := f.svc.Recalculate(f.as(t, o.internA), payroll.RecalculateRequest{Month: "2026-03"})
	assert.ErrorIs(t, err, user.ErrExcludedFromPayroll)

	result := f.recalculate(t, o.superAdmin)
	assert.Equal(t, 7, result.Created)
	assert.Equal(t, "2026-03", result.Month)

	_, err = f.svc.Recalculate(f.as(t, o.admin), payroll.RecalculateRequest{Month: "March"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestUpdateRecordStatus(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)
	rec := f.record(t, "emp-a")

	_, err := f.svc.UpdateRecordStatus(f.as(t, o.deptAdminA), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "paid"})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	paid, err := f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "2026-03-20T10:00:00Z", *paid.PaidAt)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, "admin", *paid.PaidBy)

	_, err = f.svc.UpdateRecordStatus(f.as(t, o.superAdmin), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "paid"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyPaid)

	_, err = f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: "missing", Status: "paid"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)

	_, err = f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "calculated"})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	_, err = f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "archived"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	events := f.sink.named(audit.EventPayrollFinalized)
	require.Len(t, events, 1)
	assert.Equal(t, rec.ID, events[0].ObjectID)
	assert.Equal(t, "admin", events[0].ActorID)
}

func TestUpdateRecordStatus_BackwardTransitionOnCalculatedRecord(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)
	rec := f.record(t, "emp-a")

	_, err := f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: "calculated"})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	_, err = f.svc.UpdateRecordStatus(f.as(t, o.admin), payroll.UpdateRecordStatusRequest{ID: "missing", Status: "calculated"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)

	assert.Equal(t, payroll.PayrollStatusCalculated, f.record(t, "emp-a").Status)
	assert.Empty(t, f.sink.named(audit.EventPayrollFinalized))
}

func TestSetCompensation_SelfAlwaysDenied(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	rate := decimal.RequireFromString("500")

	for _, actor := range []employee.Employee{o.superAdmin, o.admin, o.deptAdminA, o.managerA, o.employeeA, o.internA} {
		_, err := f.svc.SetCompensation(f.as(t, actor), payroll.SetCompensationRequest{EmployeeID: actor.ID, HourlyRate: &rate})
		assert.ErrorIs(t, err, user.ErrSelfRateChange, actor.ID)
	}

	entries, err := f.svc.timeline.Entries(context.Background(), o.admin.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetCompensation_DepartmentScope(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	rate := decimal.RequireFromString("150.00")
	ctx := f.as(t, o.deptAdminA)

	_, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeB.ID, HourlyRate: &rate})
	assert.ErrorIs(t, err, user.ErrOutOfScope)

	_, err = f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.managerA.ID, HourlyRate: &rate})
	assert.ErrorIs(t, err, user.ErrOutOfScope)

	_, err = f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.internA.ID, HourlyRate: &rate})
	assert.ErrorIs(t, err, user.ErrExcludedFromPayroll)

	resp, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeA.ID, HourlyRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, "150.00", resp.Profile.HourlyRate.StringFixed(2))
	require.Len(t, resp.RateHistory, 1)
	assert.Equal(t, "2026-03-20", resp.RateHistory[0].EffectiveFrom)
	require.NotNil(t, resp.RateHistory[0].RecordedBy)
	assert.Equal(t, "da-a", *resp.RateHistory[0].RecordedBy)

	_, err = f.svc.SetCompensation(f.as(t, o.employeeA), payroll.SetCompensationRequest{EmployeeID: o.employeeA2.ID, HourlyRate: &rate})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestSetCompensation_DuplicateEffectiveDate(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	ctx := f.as(t, o.admin)
	from := "2026-03-15"

	_, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeB.ID, HourlyRate: ptr(decimal.NewFromInt(120)), EffectiveFrom: &from})
	require.NoError(t, err)

	_, err = f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeB.ID, HourlyRate: ptr(decimal.NewFromInt(130)), EffectiveFrom: &from})
	assert.ErrorIs(t, err, payroll.ErrRateEntryExists)
}

func TestSetCompensation_FutureRateNotMirroredYet(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	ctx := f.as(t, o.admin)
	future := "2026-04-01"
	past := "2026-03-01"

	resp, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeA.ID, HourlyRate: ptr(decimal.NewFromInt(300)), EffectiveFrom: &future})
	require.NoError(t, err)
	assert.Equal(t, "100", resp.Profile.HourlyRate.String())

	resp, err = f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeA.ID, HourlyRate: ptr(decimal.NewFromInt(120)), EffectiveFrom: &past})
	require.NoError(t, err)
	assert.Equal(t, "120", resp.Profile.HourlyRate.String())
	assert.Len(t, resp.RateHistory, 2)

	rate, err := f.svc.timeline.EffectiveRate(context.Background(), o.employeeA.ID, day(31).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "300", rate.String())
}

func TestSetCompensation_ModeChangeAndValidation(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	ctx := f.as(t, o.admin)

	_, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{EmployeeID: o.employeeB.ID, PayMode: ptr("FIXED_SALARY")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "fixed_salary")

	resp, err := f.svc.SetCompensation(ctx, payroll.SetCompensationRequest{
		EmployeeID:  o.employeeB.ID,
		PayMode:     ptr("FIXED_SALARY"),
		FixedSalary: ptr(decimal.RequireFromString("4200.00")),
	})
	require.NoError(t, err)
	assert.Equal(t, "FIXED_SALARY", resp.Profile.PayMode)
	assert.Empty(t, resp.RateHistory)

	// records are not rewritten until the month is recalculated
	assert.Equal(t, 0, f.store.RecordCount())
	f.recalculate(t, o.admin)
	assert.Equal(t, "4200.00", f.record(t, o.employeeB.ID).TotalSalary.StringFixed(2))

	assert.Len(t, f.sink.named(audit.EventProfileUpdated), 1)
	assert.Empty(t, f.sink.named(audit.EventRateChanged))
}

func TestSetCompensation_DoesNotRewriteExistingRecords(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.recalculate(t, o.admin)
	before := f.record(t, o.employeeA.ID)

	_, err := f.svc.SetCompensation(f.as(t, o.admin), payroll.SetCompensationRequest{
		EmployeeID:    o.employeeA.ID,
		HourlyRate:    ptr(decimal.NewFromInt(1000)),
		EffectiveFrom: ptr("2026-03-01"),
	})
	require.NoError(t, err)
	assert.True(t, before.TotalSalary.Equal(f.record(t, o.employeeA.ID).TotalSalary))

	result := f.recalculate(t, o.admin)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "8000.00", f.record(t, o.employeeA.ID).TotalSalary.StringFixed(2))
}

func TestGetRateHistory(t *testing.T) {
	f := newFixture(t)
	o := f.org(t)
	f.rate(t, o.employeeA.ID, "90", day(1))
	f.rate(t, o.employeeA.ID, "110", day(10))

	history, err := f.svc.GetRateHistory(f.as(t, o.deptAdminA), o.employeeA.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-03-01", history[0].EffectiveFrom)

	_, err = f.svc.GetRateHistory(f.as(t, o.deptAdminA), o.employeeB.ID)
	assert.ErrorIs(t, err, user.ErrOutOfScope)

	_, err = f.svc.GetRateHistory(f.as(t, o.employeeA), o.employeeA.ID)
	assert.ErrorIs(t, err, user.ErrOutOfScope)

	_, err = f.svc.GetRateHistory(f.as(t, o.admin), "nobody")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
