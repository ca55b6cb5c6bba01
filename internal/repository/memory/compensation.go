package memory

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type compensationRepositoryImpl struct {
	store *Store
}

func NewCompensationRepository(store *Store) payroll.CompensationRepository {
	return &compensationRepositoryImpl{store: store}
}

func (r *compensationRepositoryImpl) GetProfile(_ context.Context, employeeID string) (payroll.CompensationProfile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.profiles[employeeID]
	if !ok {
		return payroll.CompensationProfile{}, payroll.ErrCompensationProfileNotFound
	}
	return p, nil
}

func (r *compensationRepositoryImpl) UpsertProfile(_ context.Context, profile payroll.CompensationProfile) (payroll.CompensationProfile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile.UpdatedAt = r.store.now()
	r.store.profiles[profile.EmployeeID] = profile
	return profile, nil
}
