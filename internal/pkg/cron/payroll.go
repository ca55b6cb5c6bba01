package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// MonthRecalculator recomputes every eligible employee for a month on
// behalf of actorID.
type MonthRecalculator interface {
	RecalculateMonth(ctx context.Context, month payroll.Month, actorID string) (payroll.RecalculateResponse, error)
}

type PayrollJobs struct {
	recalculator MonthRecalculator
	interval     time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewPayrollJobs(recalculator MonthRecalculator, interval time.Duration, logger *slog.Logger) *PayrollJobs {
	return &PayrollJobs{
		recalculator: recalculator,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("recalculate_current_month_payroll", j.interval, j.RecalculateCurrentMonth)
}

// RecalculateCurrentMonth refreshes the running month so self-service
// views stay close to the attendance ledger. A run already in progress
// for the month is not an error.
func (j *PayrollJobs) RecalculateCurrentMonth(ctx context.Context) error {
	month := payroll.MonthOf(j.now().UTC())

	result, err := j.recalculator.RecalculateMonth(ctx, month, audit.SystemActor)
	if errors.Is(err, payroll.ErrRecalculationInProgress) {
		j.logger.InfoContext(ctx, "Cron: payroll recalculation skipped, run in progress", "month", month.String())
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.InfoContext(ctx, "Cron: payroll recalculated",
		"month", result.Month,
		"created", result.Created,
		"updated", result.Updated,
		"skipped_paid", result.SkippedPaid,
		"failed", len(result.Failed),
	)
	return nil
}
