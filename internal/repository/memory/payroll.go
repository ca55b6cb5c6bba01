package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type payrollRepositoryImpl struct {
	store *Store
}

func NewPayrollRepository(store *Store) payroll.PayrollRepository {
	return &payrollRepositoryImpl{store: store}
}

func (r *payrollRepositoryImpl) UpsertCalculated(_ context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, payroll.UpsertOutcome, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := recordKey{EmployeeID: record.EmployeeID, Month: record.Month}
	if id, ok := r.store.recordKeys[key]; ok {
		existing := r.store.records[id]
		switch {
		case existing.IsPaid():
			return r.joined(existing), payroll.OutcomeSkippedPaid, nil
		case existing.SameTotals(record):
			return r.joined(existing), payroll.OutcomeUnchanged, nil
		}
		existing.TotalHours = record.TotalHours
		existing.TotalSalary = record.TotalSalary
		existing.CalculatedAt = record.CalculatedAt
		existing.UpdatedAt = r.store.now()
		r.store.records[id] = existing
		return r.joined(existing), payroll.OutcomeUpdated, nil
	}

	now := r.store.now()
	record.ID = r.store.newID()
	record.Status = payroll.PayrollStatusCalculated
	record.PaidAt = nil
	record.PaidBy = nil
	record.CreatedAt = now
	record.UpdatedAt = now
	r.store.records[record.ID] = record
	r.store.recordKeys[key] = record.ID
	return r.joined(record), payroll.OutcomeCreated, nil
}

func (r *payrollRepositoryImpl) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r.joined(rec), nil
}

func (r *payrollRepositoryImpl) GetByEmployeeMonth(_ context.Context, employeeID string, month payroll.Month) (payroll.PayrollRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.recordKeys[recordKey{EmployeeID: employeeID, Month: month}]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r.joined(r.store.records[id]), nil
}

func (r *payrollRepositoryImpl) ListByMonth(_ context.Context, month payroll.Month, employeeIDs []string) ([]payroll.PayrollRecord, error) {
	var allowed map[string]bool
	if employeeIDs != nil {
		allowed = make(map[string]bool, len(employeeIDs))
		for _, id := range employeeIDs {
			allowed[id] = true
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]payroll.PayrollRecord, 0)
	for _, rec := range r.store.records {
		if rec.Month != month {
			continue
		}
		if allowed != nil && !allowed[rec.EmployeeID] {
			continue
		}
		out = append(out, r.joined(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *payrollRepositoryImpl) ListByEmployee(_ context.Context, employeeID string) ([]payroll.PayrollRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]payroll.PayrollRecord, 0)
	for _, rec := range r.store.records {
		if rec.EmployeeID == employeeID {
			out = append(out, r.joined(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.First().After(out[j].Month.First())
	})
	return out, nil
}

func (r *payrollRepositoryImpl) MarkPaid(_ context.Context, id string, paidBy string, paidAt time.Time) (payroll.PayrollRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	if err := rec.CanTransitionTo(payroll.PayrollStatusPaid); err != nil {
		return payroll.PayrollRecord{}, err
	}

	rec.Status = payroll.PayrollStatusPaid
	rec.PaidAt = &paidAt
	rec.PaidBy = &paidBy
	rec.UpdatedAt = r.store.now()
	r.store.records[id] = rec
	return r.joined(rec), nil
}

// joined fills the directory columns a SQL join would return. Callers hold
// the store lock.
func (r *payrollRepositoryImpl) joined(rec payroll.PayrollRecord) payroll.PayrollRecord {
	if e, ok := r.store.employees[rec.EmployeeID]; ok {
		name, code := e.FullName, e.EmployeeCode
		rec.EmployeeName = &name
		rec.EmployeeCode = &code
		rec.DepartmentID = e.DepartmentID
	}
	return rec
}
