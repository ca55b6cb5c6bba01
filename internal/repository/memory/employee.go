package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
)

type employeeRepositoryImpl struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{store: store}
}

func (r *employeeRepositoryImpl) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepositoryImpl) GetActive(_ context.Context) ([]employee.Employee, error) {
	return r.list(func(e employee.Employee) bool { return e.IsActive }), nil
}

func (r *employeeRepositoryImpl) GetByDepartment(_ context.Context, departmentID string) ([]employee.Employee, error) {
	return r.list(func(e employee.Employee) bool {
		return e.DepartmentID != nil && *e.DepartmentID == departmentID
	}), nil
}

func (r *employeeRepositoryImpl) list(keep func(employee.Employee) bool) []employee.Employee {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]employee.Employee, 0)
	for _, e := range r.store.employees {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
