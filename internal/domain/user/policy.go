package user

// Subject is the authorization view of a person: who they are, what role
// they hold and which department they belong to.
type Subject struct {
	ID           string
	Role         Role
	DepartmentID *string
	Active       bool
}

func (s Subject) sameDepartment(other Subject) bool {
	return s.DepartmentID != nil && other.DepartmentID != nil && *s.DepartmentID == *other.DepartmentID
}

type Action string

const (
	ActionViewOwn      Action = "view_own"      // my_record, my_history
	ActionViewRecords  Action = "view_records"  // admin_records, admin_summary, export
	ActionViewEmployee Action = "view_employee" // one employee's records or rate history
	ActionSetRate      Action = "set_rate"
	ActionViewRates    Action = "view_rates" // rate history, same scope as set_rate
	ActionRecalculate  Action = "recalculate"
	ActionFinalize     Action = "finalize"
)

// Authorize is the single policy decision point for payroll. target is
// required for ActionViewEmployee, ActionSetRate and ActionViewRates and
// ignored otherwise.
func Authorize(actor Subject, action Action, target *Subject) error {
	if !actor.Active {
		return ErrInactiveAccount
	}
	if action == ActionSetRate && target != nil && target.ID == actor.ID {
		return ErrSelfRateChange
	}
	if actor.Role.Tier() == TierNone {
		return ErrExcludedFromPayroll
	}

	switch action {
	case ActionViewOwn:
		return require(actor, PermissionPayrollViewOwn)

	case ActionViewRecords:
		if HasPermission(actor.Role, PermissionPayrollViewAll) || HasPermission(actor.Role, PermissionPayrollViewDepartment) {
			return nil
		}
		return ErrInsufficientPermissions

	case ActionViewEmployee:
		if target == nil {
			return ErrOutOfScope
		}
		if target.Role.Tier() == TierNone {
			return ErrExcludedFromPayroll
		}
		if target.ID == actor.ID {
			return require(actor, PermissionPayrollViewOwn)
		}
		if HasPermission(actor.Role, PermissionPayrollViewAll) {
			return nil
		}
		if HasPermission(actor.Role, PermissionPayrollViewDepartment) {
			return departmentScope(actor, *target)
		}
		return ErrInsufficientPermissions

	case ActionSetRate, ActionViewRates:
		if target == nil || target.ID == actor.ID {
			return ErrOutOfScope
		}
		if target.Role.Tier() == TierNone {
			return ErrExcludedFromPayroll
		}
		if HasPermission(actor.Role, PermissionCompensationManageAll) {
			return nil
		}
		if HasPermission(actor.Role, PermissionCompensationManageDepartment) {
			return departmentScope(actor, *target)
		}
		return ErrInsufficientPermissions

	case ActionRecalculate:
		return require(actor, PermissionPayrollRecalculate)

	case ActionFinalize:
		return require(actor, PermissionPayrollFinalize)
	}

	return ErrInsufficientPermissions
}

// CanView reports whether actor may see target's payroll data.
func CanView(actor, target Subject) bool {
	return Authorize(actor, ActionViewEmployee, &target) == nil
}

// departmentScope admits only base employees of the actor's own department.
func departmentScope(actor, target Subject) error {
	if target.ID == actor.ID || target.Role != RoleEmployee || !actor.sameDepartment(target) {
		return ErrOutOfScope
	}
	return nil
}

func require(actor Subject, p Permission) error {
	if !HasPermission(actor.Role, p) {
		return ErrInsufficientPermissions
	}
	return nil
}
