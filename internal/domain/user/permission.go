package user

type Permission string

const (
	// Self service
	PermissionPayrollViewOwn Permission = "payroll.view_own"

	// Department scoped administration
	PermissionPayrollViewDepartment        Permission = "payroll.view_department"
	PermissionCompensationManageDepartment Permission = "compensation.manage_department"

	// Global administration
	PermissionPayrollViewAll        Permission = "payroll.view_all"
	PermissionCompensationManageAll Permission = "compensation.manage_all"
	PermissionPayrollRecalculate    Permission = "payroll.recalculate"
	PermissionPayrollFinalize       Permission = "payroll.finalize"
)

// TierPermissions maps authorization tiers to their permissions
var TierPermissions = map[Tier][]Permission{
	TierTop: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewAll,
		PermissionCompensationManageAll,
		PermissionPayrollRecalculate,
		PermissionPayrollFinalize,
	},
	TierScoped: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewDepartment,
		PermissionCompensationManageDepartment,
	},
	TierSelf: {
		PermissionPayrollViewOwn,
	},
	TierNone: {
		// Interns see nothing
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := TierPermissions[role.Tier()]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
