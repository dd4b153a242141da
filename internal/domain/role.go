package domain

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleDriver  Role = "driver"
)

// Roles lists every recognized role.
func Roles() []Role {
	return []Role{RoleStudent, RoleDriver}
}

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDriver:
		return true
	default:
		return false
	}
}

// ParseRole converts raw input to a Role.
func ParseRole(raw string) (Role, bool) {
	r := Role(raw)
	return r, r.Valid()
}
