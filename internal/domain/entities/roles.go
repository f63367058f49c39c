package entities

// Role policy: pure predicates over a role value. Mutating services use
// these as their single authorization guard; handlers additionally gate
// routes with role middleware.

var roleRank = map[UserRole]int{
	UserRoleTeamMember: 1,
	UserRoleManager:    2,
	UserRoleSuperAdmin: 3,
}

// IsManager reports whether the role is exactly manager.
func (ur UserRole) IsManager() bool {
	return ur == UserRoleManager
}

// IsAdmin reports whether the role may review and approve work:
// managers and super admins.
func (ur UserRole) IsAdmin() bool {
	return ur == UserRoleManager || ur == UserRoleSuperAdmin
}

// IsSuperAdmin reports whether the role is super admin.
func (ur UserRole) IsSuperAdmin() bool {
	return ur == UserRoleSuperAdmin
}

// HasPermission compares roles on the fixed total order
// super_admin(3) > manager(2) > team_member(1).
func (ur UserRole) HasPermission(required UserRole) bool {
	return roleRank[ur] >= roleRank[required]
}
