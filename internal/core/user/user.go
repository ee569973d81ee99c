package user

import "fmt"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

func (a *Actor) IsManager() bool {
	return a != nil && a.Role == RoleManager
}

func (a *Actor) IsEmployee() bool {
	return a != nil && a.Role == RoleEmployee
}

// SupervisorRole is the role a user of role r must report to.
// ADMIN may report to another ADMIN or to nobody.
func SupervisorRole(r Role) Role {
	switch r {
	case RoleEmployee:
		return RoleManager
	case RoleManager:
		return RoleAdmin
	default:
		return RoleAdmin
	}
}
