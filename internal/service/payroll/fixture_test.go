package payroll

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	auditlog "github.com/cmlabs-hris/payroll-engine/internal/pkg/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	march    = payroll.NewMonth(2026, time.March)
	fixedNow = time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	discard  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Emit(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) named(name string) []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store      *memory.Store
	svc        *PayrollServiceImpl
	calculator *Calculator
	locker     *lock.LocalLocker
	sink       *recordingSink
	jwt        *jwt.JWTService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	employeeRepo := memory.NewEmployeeRepository(store)
	payrollRepo := memory.NewPayrollRepository(store)
	compRepo := memory.NewCompensationRepository(store)

	sink := &recordingSink{}
	emitter := auditlog.NewEmitter(sink, discard)
	locker := lock.NewLocalLocker()

	timeline := NewRateTimeline(memory.NewRateRepository(store), compRepo)
	timeline.now = func() time.Time { return fixedNow }
	calculator := NewCalculator(
		employeeRepo,
		payrollRepo,
		timeline,
		NewAttendanceAggregator(memory.NewAttendanceRepository(store)),
		locker,
		emitter,
		discard,
		CalculatorConfig{Concurrency: 4, Exclusion: employee.DefaultExclusionPolicy()},
	)
	calculator.now = func() time.Time { return fixedNow }

	svc := NewPayrollService(store, payrollRepo, employeeRepo, compRepo, timeline, calculator, emitter, employee.DefaultExclusionPolicy(), discard).(*PayrollServiceImpl)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{
		store:      store,
		svc:        svc,
		calculator: calculator,
		locker:     locker,
		sink:       sink,
		jwt:        jwt.NewJWTService("test-secret", time.Hour),
	}
}

func (f *fixture) employee(id string, role user.Role, dept string) employee.Employee {
	e := employee.Employee{
		ID:           id,
		FullName:     "Employee " + id,
		EmployeeCode: "0000-" + id,
		Role:         role,
		IsActive:     true,
	}
	if dept != "" {
		e.DepartmentID = &dept
	}
	f.store.PutEmployee(e)
	return e
}

func (f *fixture) profile(t *testing.T, p payroll.CompensationProfile) {
	t.Helper()
	_, err := memory.NewCompensationRepository(f.store).UpsertProfile(context.Background(), p)
	require.NoError(t, err)
}

func (f *fixture) rate(t *testing.T, employeeID, rate string, from time.Time) {
	t.Helper()
	_, err := memory.NewRateRepository(f.store).Append(context.Background(), payroll.RateEntry{
		EmployeeID:    employeeID,
		Rate:          decimal.RequireFromString(rate),
		EffectiveFrom: from,
	})
	require.NoError(t, err)
}

func (f *fixture) worked(employeeID string, day int, hours string, status attendance.PresenceStatus) {
	f.store.AddFacts(attendance.Fact{
		EmployeeID:     employeeID,
		Date:           time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC),
		WorkedHours:    decimal.RequireFromString(hours),
		PresenceStatus: status,
	})
}

// as returns a context carrying a verified access token for e.
func (f *fixture) as(t *testing.T, e employee.Employee) context.Context {
	t.Helper()
	tokenString, _, err := f.jwt.GenerateAccessToken(e.ID, e.Role, e.DepartmentID)
	require.NoError(t, err)
	token, err := f.jwt.JWTAuth().Decode(tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func hourly(employeeID, rate string) payroll.CompensationProfile {
	p := payroll.DefaultProfile(employeeID)
	p.HourlyRate = decimal.RequireFromString(rate)
	return p
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}
