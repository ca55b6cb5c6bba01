package employee

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
)

// Employee is the read model of the identity and org directory that payroll
// depends on.
type Employee struct {
	ID           string
	FullName     string
	EmployeeCode string
	Role         user.Role
	DepartmentID *string
	ManagerID    *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subject returns the authorization view of the employee.
func (e Employee) Subject() user.Subject {
	return user.Subject{
		ID:           e.ID,
		Role:         e.Role,
		DepartmentID: e.DepartmentID,
		Active:       e.IsActive,
	}
}

// ExclusionPolicy decides which roles never receive payroll.
type ExclusionPolicy struct {
	roles map[user.Role]struct{}
}

func NewExclusionPolicy(roles ...user.Role) ExclusionPolicy {
	p := ExclusionPolicy{roles: make(map[user.Role]struct{}, len(roles))}
	for _, r := range roles {
		p.roles[r] = struct{}{}
	}
	return p
}

// DefaultExclusionPolicy excludes interns.
func DefaultExclusionPolicy() ExclusionPolicy {
	return NewExclusionPolicy(user.RoleIntern)
}

func (p ExclusionPolicy) IsExcludedFromPayroll(role user.Role) bool {
	if role.Tier() == user.TierNone {
		return true
	}
	_, ok := p.roles[role]
	return ok
}

// EligibleForPayroll reports whether the employee gets a monthly record.
func (p ExclusionPolicy) EligibleForPayroll(e Employee) bool {
	return e.IsActive && !p.IsExcludedFromPayroll(e.Role)
}
