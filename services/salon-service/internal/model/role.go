package model

import "fmt"

// Role tags a User with the profile that belongs to it.
type Role string

const (
	RoleOwner    Role = "Owner"
	RoleStaff    Role = "Staff"
	RoleCustomer Role = "Customer"
)

func ParseRole(v string) (Role, error) {
	switch Role(v) {
	case RoleOwner, RoleStaff, RoleCustomer:
		return Role(v), nil
	case "":
		return RoleCustomer, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

// IDPrefix is the prefix of user ids minted for the role.
func (r Role) IDPrefix() string {
	switch r {
	case RoleOwner:
		return "owner-"
	case RoleStaff:
		return "staff-"
	default:
		return "user-"
	}
}

// CanManageSchedules reports whether the role may create availability and staff.
func (r Role) CanManageSchedules() bool {
	return r == RoleOwner || r == RoleStaff
}
