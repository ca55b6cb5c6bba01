package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	auditlog "github.com/cmlabs-hris/payroll-engine/internal/pkg/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

type CalculatorConfig struct {
	Concurrency int
	Exclusion   employee.ExclusionPolicy
}

// Calculator turns ledger facts and rate history into monthly records.
type Calculator struct {
	employeeRepo employee.EmployeeRepository
	payrollRepo  payroll.PayrollRepository
	timeline     *RateTimeline
	aggregator   *AttendanceAggregator
	locker       lock.Locker
	audit        *auditlog.Emitter
	logger       *slog.Logger
	concurrency  int
	exclusion    employee.ExclusionPolicy
	now          func() time.Time
}

func NewCalculator(
	employeeRepo employee.EmployeeRepository,
	payrollRepo payroll.PayrollRepository,
	timeline *RateTimeline,
	aggregator *AttendanceAggregator,
	locker lock.Locker,
	auditEmitter *auditlog.Emitter,
	logger *slog.Logger,
	cfg CalculatorConfig,
) *Calculator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Calculator{
		employeeRepo: employeeRepo,
		payrollRepo:  payrollRepo,
		timeline:     timeline,
		aggregator:   aggregator,
		locker:       locker,
		audit:        auditEmitter,
		logger:       logger.With("component", "payroll_calculator"),
		concurrency:  concurrency,
		exclusion:    cfg.Exclusion,
		now:          time.Now,
	}
}

// CalculateEmployee computes one employee's totals for month without
// persisting anything.
func (c *Calculator) CalculateEmployee(ctx context.Context, employeeID string, month payroll.Month) (payroll.Calculation, error) {
	profile, err := c.timeline.Profile(ctx, employeeID)
	if err != nil {
		return payroll.Calculation{}, err
	}

	var windows []payroll.WindowHours
	if profile.PayMode == payroll.PayModeHourly {
		entries, err := c.timeline.Entries(ctx, employeeID)
		if err != nil {
			return payroll.Calculation{}, err
		}
		windows, err = c.aggregator.HoursInWindows(ctx, employeeID, payroll.PartitionMonth(month, entries, profile.HourlyRate))
		if err != nil {
			return payroll.Calculation{}, err
		}
	} else {
		hours, err := c.aggregator.HoursInRange(ctx, employeeID, month.First(), month.Last())
		if err != nil {
			return payroll.Calculation{}, err
		}
		windows = []payroll.WindowHours{{
			Window: payroll.Window{Start: month.First(), End: month.Last(), Rate: decimal.Zero},
			Hours:  hours,
		}}
	}

	return payroll.Settle(month, profile, windows), nil
}

// RecalculateMonth recomputes every eligible employee for month. Failures
// of single employees are reported in Failed and never abort the batch.
// Cancellation stops scheduling further employees; the counts so far are
// returned together with the context error.
func (c *Calculator) RecalculateMonth(ctx context.Context, month payroll.Month, actorID string) (payroll.RecalculateResponse, error) {
	release, err := c.locker.Acquire(ctx, month.String())
	if errors.Is(err, lock.ErrLocked) {
		return payroll.RecalculateResponse{}, payroll.ErrRecalculationInProgress
	}
	if err != nil {
		return payroll.RecalculateResponse{}, fmt.Errorf("acquire recalculation lock: %w", err)
	}
	defer release()

	employees, err := c.employeeRepo.GetActive(ctx)
	if err != nil {
		return payroll.RecalculateResponse{}, fmt.Errorf("list active employees: %w", err)
	}

	eligible := make([]employee.Employee, 0, len(employees))
	for _, e := range employees {
		if c.exclusion.EligibleForPayroll(e) {
			eligible = append(eligible, e)
		}
	}

	start := c.now()
	c.logger.InfoContext(ctx, "payroll recalculation started",
		"month", month.String(),
		"actor_id", actorID,
		"eligible", len(eligible),
	)

	result := payroll.RecalculateResponse{
		Month:  month.String(),
		Failed: []payroll.EmployeeFailure{},
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for _, emp := range eligible {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcome, err := c.recalculateEmployee(ctx, emp.ID, month)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return nil
				}
				c.logger.WarnContext(ctx, "payroll recalculation failed for employee",
					"month", month.String(),
					"employee_id", emp.ID,
					"error", err,
				)
				result.Failed = append(result.Failed, payroll.EmployeeFailure{EmployeeID: emp.ID, Error: err.Error()})
				return nil
			}

			switch outcome {
			case payroll.OutcomeCreated:
				result.Created++
			case payroll.OutcomeUpdated:
				result.Updated++
			case payroll.OutcomeSkippedPaid:
				result.SkippedPaid++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].EmployeeID < result.Failed[j].EmployeeID
	})

	c.logger.InfoContext(ctx, "payroll recalculation finished",
		"month", month.String(),
		"created", result.Created,
		"updated", result.Updated,
		"skipped_paid", result.SkippedPaid,
		"failed", len(result.Failed),
		"duration", c.now().Sub(start),
	)

	c.audit.Emit(context.WithoutCancel(ctx), audit.Event{
		Name:       audit.EventPayrollRecalculated,
		ActorID:    actorID,
		ObjectType: audit.ObjectPayrollMonth,
		ObjectID:   month.String(),
		Metadata: map[string]any{
			"created":      result.Created,
			"updated":      result.Updated,
			"skipped_paid": result.SkippedPaid,
			"failed":       len(result.Failed),
		},
	})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("payroll recalculation interrupted: %w", err)
	}
	return result, nil
}

func (c *Calculator) recalculateEmployee(ctx context.Context, employeeID string, month payroll.Month) (payroll.UpsertOutcome, error) {
	calc, err := c.CalculateEmployee(ctx, employeeID, month)
	if err != nil {
		return 0, err
	}

	_, outcome, err := c.payrollRepo.UpsertCalculated(ctx, calc.Record(c.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("save payroll record: %w", err)
	}
	return outcome, nil
}
