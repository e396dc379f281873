package models

// Role identifies a user's position within an organization
type Role string

const (
	RoleOwner     Role = "owner"
	RoleManager   Role = "manager"
	RoleTrainer   Role = "trainer"
	RoleFrontDesk Role = "front_desk"
	RoleMember    Role = "member"
)

// Permission constants define all valid permissions in the system
const (
	PermissionMembersRead      = "members.read"
	PermissionMembersWrite     = "members.write"
	PermissionClassesRead      = "classes.read"
	PermissionClassesManage    = "classes.manage"
	PermissionBillingManage    = "billing.manage"
	PermissionLeadsManage      = "leads.manage"
	PermissionEquipmentInspect = "equipment.inspect"
	PermissionCampaignsSend    = "campaigns.send"
	PermissionReportsExport    = "reports.export"
	PermissionSettingsManage   = "settings.manage"
	PermissionStaffManage      = "staff.manage"
)

// rolePermissions is the static role -> permission table. Permission sets
// are derived from role only; they are never edited independently.
var rolePermissions = map[Role][]string{
	RoleOwner: {
		PermissionMembersRead, PermissionMembersWrite,
		PermissionClassesRead, PermissionClassesManage,
		PermissionBillingManage, PermissionLeadsManage,
		PermissionEquipmentInspect, PermissionCampaignsSend,
		PermissionReportsExport, PermissionSettingsManage,
		PermissionStaffManage,
	},
	RoleManager: {
		PermissionMembersRead, PermissionMembersWrite,
		PermissionClassesRead, PermissionClassesManage,
		PermissionBillingManage, PermissionLeadsManage,
		PermissionEquipmentInspect, PermissionCampaignsSend,
		PermissionReportsExport,
	},
	RoleTrainer: {
		PermissionMembersRead,
		PermissionClassesRead, PermissionClassesManage,
		PermissionEquipmentInspect,
	},
	RoleFrontDesk: {
		PermissionMembersRead, PermissionMembersWrite,
		PermissionClassesRead, PermissionLeadsManage,
	},
	RoleMember: {
		PermissionClassesRead,
	},
}

// roleLevels assigns a numeric rank for level comparisons
var roleLevels = map[Role]int{
	RoleOwner:     5,
	RoleManager:   4,
	RoleTrainer:   3,
	RoleFrontDesk: 2,
	RoleMember:    1,
}

// IsValidRole checks if a role exists in the role table
func IsValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns the permission set derived from a role.
// Unknown roles get an empty set.
func PermissionsForRole(role Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// RoleLevel returns the numeric level of a role (0 for unknown roles)
func RoleLevel(role Role) int {
	return roleLevels[role]
}

// HasPermission checks if a permission set contains a required permission
func HasPermission(permissions []string, required string) bool {
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}

// MFARequiredForRole reports whether a role must have MFA enabled.
// Elevated roles manage billing and member data for the whole organization.
func MFARequiredForRole(role Role) bool {
	return role == RoleOwner || role == RoleManager
}
