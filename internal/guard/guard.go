// Package guard decides which client view may render for a given session.
// Decisions are pure functions of the session and never touch the network.
package guard

import (
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/session"
)

// Client view paths.
const (
	LoginPath   = "/"
	StudentPath = "/student"
	DriverPath  = "/driver"
)

// Kind is the outcome of a guard check.
type Kind int

const (
	Allow Kind = iota
	RedirectToLogin
	RedirectToRoleHome
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToRoleHome:
		return "redirect_to_role_home"
	default:
		return "unknown"
	}
}

// Decision is a guard outcome. Role is set only for RedirectToRoleHome.
type Decision struct {
	Kind Kind
	Role domain.Role
}

// Target returns the path the client should end up on, or "" when allowed.
func (d Decision) Target() string {
	switch d.Kind {
	case RedirectToLogin:
		return LoginPath
	case RedirectToRoleHome:
		return HomePath(d.Role)
	default:
		return ""
	}
}

// Evaluate checks s against required. An empty required role admits any
// signed-in user. A session whose role is not recognized is sent to login.
func Evaluate(s session.Session, required domain.Role) Decision {
	if s.Empty() || !s.Profile.Role.Valid() {
		return Decision{Kind: RedirectToLogin}
	}
	if required != "" && s.Profile.Role != required {
		return Decision{Kind: RedirectToRoleHome, Role: s.Profile.Role}
	}
	return Decision{Kind: Allow}
}

// HomePath returns the landing view for role.
func HomePath(role domain.Role) string {
	switch role {
	case domain.RoleStudent:
		return StudentPath
	case domain.RoleDriver:
		return DriverPath
	default:
		return LoginPath
	}
}

// Resolve maps a navigation request to the path that should render. The
// login view is always reachable; unknown paths fall back to it.
func Resolve(path string, s session.Session) string {
	var required domain.Role
	switch path {
	case LoginPath:
		return LoginPath
	case StudentPath:
		required = domain.RoleStudent
	case DriverPath:
		required = domain.RoleDriver
	default:
		return LoginPath
	}

	d := Evaluate(s, required)
	if d.Kind == Allow {
		return path
	}
	return d.Target()
}
