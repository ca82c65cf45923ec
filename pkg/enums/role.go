package enums

import "fmt"

// Role is the numeric permission level carried in access token claims.
type Role int

const (
	RoleMember        Role = 0
	RoleCategoryAdmin Role = 1
	RoleCoSuperAdmin  Role = 2
	RoleSuperAdmin    Role = 3
)

var roleNames = map[Role]string{
	RoleMember:        "member",
	RoleCategoryAdmin: "category_admin",
	RoleCoSuperAdmin:  "co_super_admin",
	RoleSuperAdmin:    "super_admin",
}

// String implements fmt.Stringer.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// IsAdmin reports whether the role may approve, reject, and return requests.
func (r Role) IsAdmin() bool {
	return r >= RoleCategoryAdmin && r.IsValid()
}

// CanManageCategory reports whether an actor bound to ownCategory may act on
// target. Category admins are scoped to their own category; co-super and
// super admins act across all of them.
func (r Role) CanManageCategory(ownCategory, target string) bool {
	switch {
	case !r.IsAdmin():
		return false
	case r >= RoleCoSuperAdmin:
		return true
	default:
		return ownCategory != "" && ownCategory == target
	}
}

// ParseRole converts raw numeric input into a Role.
func ParseRole(value int) (Role, error) {
	role := Role(value)
	if !role.IsValid() {
		return 0, fmt.Errorf("invalid role %d", value)
	}
	return role, nil
}
