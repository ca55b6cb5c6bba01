package user

import "strings"

type Role string

const (
	RoleIntern          Role = "intern"           // Excluded from payroll entirely
	RoleEmployee        Role = "employee"         // Base payroll-eligible role
	RoleManager         Role = "manager"          // Line manager, self-service on payroll
	RoleDepartmentAdmin Role = "department_admin" // Administers compensation inside one department
	RoleAdmin           Role = "admin"            // Global payroll administrator
	RoleSuperAdmin      Role = "super_admin"      // Global, unrestricted
)

var roleLevels = map[Role]int{
	RoleIntern:          0,
	RoleEmployee:        1,
	RoleManager:         2,
	RoleDepartmentAdmin: 3,
	RoleAdmin:           4,
	RoleSuperAdmin:      5,
}

// ParseRole maps a stored or claimed role name onto the closed Role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLevels[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Level returns the position of the role in the total order, -1 if unknown.
func (r Role) Level() int {
	if l, ok := roleLevels[r]; ok {
		return l
	}
	return -1
}

func (r Role) Valid() bool {
	return r.Level() >= 0
}

// AtLeast reports whether r is ranked at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.Level() >= other.Level()
}

type Tier int

const (
	TierNone   Tier = iota // no payroll access at all
	TierSelf               // own records only
	TierScoped             // department-scoped administration
	TierTop                // global administration
)

func (t Tier) String() string {
	switch t {
	case TierSelf:
		return "self"
	case TierScoped:
		return "scoped"
	case TierTop:
		return "top"
	default:
		return "none"
	}
}

// Tier returns the authorization tier of the role.
func (r Role) Tier() Tier {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return TierTop
	case RoleDepartmentAdmin:
		return TierScoped
	case RoleEmployee, RoleManager:
		return TierSelf
	default:
		return TierNone
	}
}
