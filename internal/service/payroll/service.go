package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	auditlog "github.com/cmlabs-hris/payroll-engine/internal/pkg/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/excel"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	tx           database.Transactor
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	compRepo     payroll.CompensationRepository
	timeline     *RateTimeline
	calculator   *Calculator
	audit        *auditlog.Emitter
	exclusion    employee.ExclusionPolicy
	logger       *slog.Logger
	now          func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	compRepo payroll.CompensationRepository,
	timeline *RateTimeline,
	calculator *Calculator,
	auditEmitter *auditlog.Emitter,
	exclusion employee.ExclusionPolicy,
	logger *slog.Logger,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:           tx,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		compRepo:     compRepo,
		timeline:     timeline,
		calculator:   calculator,
		audit:        auditEmitter,
		exclusion:    exclusion,
		logger:       logger.With("component", "payroll_service"),
		now:          time.Now,
	}
}

// currentActor resolves the caller from the token and re-reads the
// directory, so a changed role or deactivation applies immediately.
func (s *PayrollServiceImpl) currentActor(ctx context.Context) (employee.Employee, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("%w: %v", jwt.ErrInvalidClaims, err)
	}
	c, err := jwt.ClaimsFromMap(claims)
	if err != nil {
		return employee.Employee{}, err
	}

	actor, err := s.employeeRepo.GetByID(ctx, c.UserID)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return employee.Employee{}, fmt.Errorf("%w: actor is not in the directory", user.ErrInsufficientPermissions)
	}
	if err != nil {
		return employee.Employee{}, err
	}
	return actor, nil
}

// authorize applies the role policy plus the configured payroll exclusions.
func (s *PayrollServiceImpl) authorize(actor employee.Employee, action user.Action, target *employee.Employee) error {
	if target == nil {
		if action == user.ActionViewOwn && s.exclusion.IsExcludedFromPayroll(actor.Role) {
			return user.ErrExcludedFromPayroll
		}
		return user.Authorize(actor.Subject(), action, nil)
	}

	subject := target.Subject()
	if err := user.Authorize(actor.Subject(), action, &subject); err != nil {
		return err
	}
	if s.exclusion.IsExcludedFromPayroll(target.Role) {
		return user.ErrExcludedFromPayroll
	}
	return nil
}

// ========== SELF SERVICE ==========

func (s *PayrollServiceImpl) GetMyRecord(ctx context.Context, month payroll.Month) (payroll.PayrollRecordResponse, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if err := s.authorize(actor, user.ActionViewOwn, nil); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetByEmployeeMonth(ctx, actor.ID, month)
	if errors.Is(err, payroll.ErrPayrollRecordNotFound) {
		resp := payroll.NewPlaceholderResponse(actor.ID, month)
		resp.EmployeeName = actor.FullName
		resp.EmployeeCode = actor.EmployeeCode
		return resp, nil
	}
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.NewPayrollRecordResponse(record), nil
}

func (s *PayrollServiceImpl) GetMyHistory(ctx context.Context) ([]payroll.PayrollRecordResponse, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, user.ActionViewOwn, nil); err != nil {
		return nil, err
	}

	records, err := s.payrollRepo.ListByEmployee(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return toRecordResponses(records), nil
}

// ========== ADMIN VIEWS ==========

// visibleRecords returns the month's records the actor may see: all of
// them for the top tier, base employees of the own department otherwise.
func (s *PayrollServiceImpl) visibleRecords(ctx context.Context, actor employee.Employee, month payroll.Month) ([]payroll.PayrollRecord, error) {
	if err := s.authorize(actor, user.ActionViewRecords, nil); err != nil {
		return nil, err
	}

	if actor.Role.Tier() == user.TierTop {
		records, err := s.payrollRepo.ListByMonth(ctx, month, nil)
		if err != nil {
			return nil, err
		}
		return s.withoutExcluded(ctx, records)
	}

	if actor.DepartmentID == nil {
		return []payroll.PayrollRecord{}, nil
	}
	colleagues, err := s.employeeRepo.GetByDepartment(ctx, *actor.DepartmentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(colleagues))
	for _, e := range colleagues {
		if e.ID != actor.ID && user.CanView(actor.Subject(), e.Subject()) && !s.exclusion.IsExcludedFromPayroll(e.Role) {
			ids = append(ids, e.ID)
		}
	}
	return s.payrollRepo.ListByMonth(ctx, month, ids)
}

// withoutExcluded drops records whose employee now holds an excluded role.
// Records of employees no longer in the directory are kept.
func (s *PayrollServiceImpl) withoutExcluded(ctx context.Context, records []payroll.PayrollRecord) ([]payroll.PayrollRecord, error) {
	excluded := make(map[string]bool)
	out := make([]payroll.PayrollRecord, 0, len(records))
	for _, r := range records {
		skip, seen := excluded[r.EmployeeID]
		if !seen {
			e, err := s.employeeRepo.GetByID(ctx, r.EmployeeID)
			switch {
			case errors.Is(err, employee.ErrEmployeeNotFound):
				skip = false
			case err != nil:
				return nil, err
			default:
				skip = s.exclusion.IsExcludedFromPayroll(e.Role)
			}
			excluded[r.EmployeeID] = skip
		}
		if !skip {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, month payroll.Month) ([]payroll.PayrollRecordResponse, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.visibleRecords(ctx, actor, month)
	if err != nil {
		return nil, err
	}
	return toRecordResponses(records), nil
}

func (s *PayrollServiceImpl) ExportRecords(ctx context.Context, month payroll.Month) ([]byte, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.visibleRecords(ctx, actor, month)
	if err != nil {
		return nil, err
	}

	rows := make([]excel.PayrollRow, 0, len(records))
	for _, r := range toRecordResponses(records) {
		row := excel.PayrollRow{
			EmployeeID:   r.EmployeeID,
			EmployeeCode: r.EmployeeCode,
			EmployeeName: r.EmployeeName,
			Month:        r.Month,
			TotalHours:   r.TotalHours.Decimal,
			TotalSalary:  r.TotalSalary.Decimal,
			Status:       r.Status,
		}
		if r.PaidAt != nil {
			row.PaidAt = *r.PaidAt
		}
		rows = append(rows, row)
	}

	data, err := excel.PayrollWorkbook(rows)
	if err != nil {
		return nil, fmt.Errorf("export payroll records: %w", err)
	}
	return data, nil
}

func (s *PayrollServiceImpl) GetSummary(ctx context.Context, month payroll.Month) (payroll.PayrollSummaryResponse, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}
	records, err := s.visibleRecords(ctx, actor, month)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}

	summary := payroll.PayrollSummaryResponse{
		Month:     month.String(),
		Headcount: len(records),
	}
	fund, hours, average := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range records {
		fund = fund.Add(r.TotalSalary)
		hours = hours.Add(r.TotalHours)
		if r.IsPaid() {
			summary.PaidCount++
		} else {
			summary.CalculatedCount++
		}
	}
	if summary.Headcount > 0 {
		average = fund.DivRound(decimal.NewFromInt(int64(summary.Headcount)), 2)
	}
	summary.TotalPayrollFund = payroll.NewAmount(fund)
	summary.TotalHours = payroll.NewAmount(hours)
	summary.AverageSalary = payroll.NewAmount(average)
	return summary, nil
}

// ========== COMPENSATION ==========

func (s *PayrollServiceImpl) SetCompensation(ctx context.Context, req payroll.SetCompensationRequest) (payroll.CompensationResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CompensationResponse{}, err
	}

	actor, err := s.currentActor(ctx)
	if err != nil {
		return payroll.CompensationResponse{}, err
	}
	target, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.CompensationResponse{}, err
	}
	if err := s.authorize(actor, user.ActionSetRate, &target); err != nil {
		return payroll.CompensationResponse{}, err
	}

	today := payroll.Day(s.now().UTC())
	effectiveFrom := today
	if req.EffectiveFrom != nil {
		effectiveFrom, _ = time.Parse("2006-01-02", *req.EffectiveFrom)
	}

	var (
		profile payroll.CompensationProfile
		entry   *payroll.RateEntry
		history []payroll.RateEntry
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.timeline.Profile(ctx, target.ID)
		if err != nil {
			return err
		}
		profile = current

		if req.PayMode != nil {
			profile.PayMode, _ = payroll.ParsePayMode(*req.PayMode)
		}
		if req.MinuteRate != nil {
			profile.MinuteRate = *req.MinuteRate
		}
		if req.FixedSalary != nil {
			profile.FixedSalary = *req.FixedSalary
		}
		if err := payroll.ValidateProfile(profile); err != nil {
			return err
		}

		if req.HourlyRate != nil {
			appended, err := s.timeline.RecordRateChange(ctx, target.ID, *req.HourlyRate, effectiveFrom, actor.ID)
			if err != nil {
				return err
			}
			entry = &appended
		}

		history, err = s.timeline.Entries(ctx, target.ID)
		if err != nil {
			return err
		}
		// the profile mirrors whatever rate is in force today; a
		// future-dated entry only shows up once its date arrives
		profile.HourlyRate = payroll.EffectiveRate(history, current.HourlyRate, today)

		profile, err = s.compRepo.UpsertProfile(ctx, profile)
		if err != nil {
			return fmt.Errorf("save compensation profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.CompensationResponse{}, err
	}

	if entry != nil {
		s.audit.Emit(ctx, audit.Event{
			Name:       audit.EventRateChanged,
			ActorID:    actor.ID,
			ObjectType: audit.ObjectEmployee,
			ObjectID:   target.ID,
			Metadata: map[string]any{
				"rate_entry_id":  entry.ID,
				"rate":           entry.Rate.String(),
				"effective_from": entry.EffectiveFrom.Format("2006-01-02"),
			},
		})
	}
	if req.PayMode != nil || req.MinuteRate != nil || req.FixedSalary != nil {
		s.audit.Emit(ctx, audit.Event{
			Name:       audit.EventProfileUpdated,
			ActorID:    actor.ID,
			ObjectType: audit.ObjectEmployee,
			ObjectID:   target.ID,
			Metadata: map[string]any{
				"pay_mode": string(profile.PayMode),
			},
		})
	}

	return payroll.CompensationResponse{
		Profile:     payroll.NewCompensationProfileResponse(profile),
		RateHistory: payroll.NewRateEntryResponses(history),
	}, nil
}

func (s *PayrollServiceImpl) GetRateHistory(ctx context.Context, employeeID string) ([]payroll.RateEntryResponse, error) {
	actor, err := s.currentActor(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, user.ActionViewRates, &target); err != nil {
		return nil, err
	}

	entries, err := s.timeline.Entries(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return payroll.NewRateEntryResponses(entries), nil
}

// ========== RECALCULATION & LIFECYCLE ==========

func (s *PayrollServiceImpl) Recalculate(ctx context.Context, req payroll.RecalculateRequest) (payroll.RecalculateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecalculateResponse{}, err
	}
	month, err := payroll.ParseMonth(req.Month)
	if err != nil {
		return payroll.RecalculateResponse{}, err
	}

	actor, err := s.currentActor(ctx)
	if err != nil {
		return payroll.RecalculateResponse{}, err
	}
	if err := s.authorize(actor, user.ActionRecalculate, nil); err != nil {
		return payroll.RecalculateResponse{}, err
	}

	return s.calculator.RecalculateMonth(ctx, month, actor.ID)
}

func (s *PayrollServiceImpl) UpdateRecordStatus(ctx context.Context, req payroll.UpdateRecordStatusRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	actor, err := s.currentActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if err := s.authorize(actor, user.ActionFinalize, nil); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	// Only CALCULATED -> PAID is legal; any other target is a conflict on
	// an existing record.
	if next, _ := payroll.ParsePayrollStatus(req.Status); next != payroll.PayrollStatusPaid {
		current, err := s.payrollRepo.GetByID(ctx, req.ID)
		if err != nil {
			return payroll.PayrollRecordResponse{}, err
		}
		if err := current.CanTransitionTo(next); err != nil {
			return payroll.PayrollRecordResponse{}, err
		}
	}

	record, err := s.payrollRepo.MarkPaid(ctx, req.ID, actor.ID, s.now().UTC())
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	s.audit.Emit(ctx, audit.Event{
		Name:       audit.EventPayrollFinalized,
		ActorID:    actor.ID,
		ObjectType: audit.ObjectPayrollRecord,
		ObjectID:   record.ID,
		Metadata: map[string]any{
			"employee_id":  record.EmployeeID,
			"month":        record.Month.String(),
			"total_salary": record.TotalSalary.String(),
		},
	})

	return payroll.NewPayrollRecordResponse(record), nil
}

func toRecordResponses(records []payroll.PayrollRecord) []payroll.PayrollRecordResponse {
	out := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, payroll.NewPayrollRecordResponse(r))
	}
	return out
}
