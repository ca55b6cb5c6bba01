package employee

import "context"

// EmployeeRepository is the directory port consumed by payroll.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetActive(ctx context.Context) ([]Employee, error)
	GetByDepartment(ctx context.Context, departmentID string) ([]Employee, error)
}
