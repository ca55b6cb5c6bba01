package memory

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type rateRepositoryImpl struct {
	store *Store
}

func NewRateRepository(store *Store) payroll.RateRepository {
	return &rateRepositoryImpl{store: store}
}

func (r *rateRepositoryImpl) Append(_ context.Context, entry payroll.RateEntry) (payroll.RateEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entry.EffectiveFrom = payroll.Day(entry.EffectiveFrom)
	for _, existing := range r.store.rates[entry.EmployeeID] {
		if existing.EffectiveFrom.Equal(entry.EffectiveFrom) {
			return payroll.RateEntry{}, payroll.ErrRateEntryExists
		}
	}

	if entry.ID == "" {
		entry.ID = r.store.newID()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = r.store.now()
	}

	entries := append(r.store.rates[entry.EmployeeID], entry)
	payroll.SortEntries(entries)
	r.store.rates[entry.EmployeeID] = entries
	return entry, nil
}

func (r *rateRepositoryImpl) ListByEmployee(_ context.Context, employeeID string) ([]payroll.RateEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]payroll.RateEntry{}, r.store.rates[employeeID]...), nil
}
