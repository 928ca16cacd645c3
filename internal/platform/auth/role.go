// Package auth resolves the caller behind a request and decides what that
// caller may see. Sessions are stateless HS256 tokens carried in the "token"
// cookie or an Authorization bearer header.
package auth

import "fmt"

// Role is the closed set of staff roles.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleLabStaff     Role = "LAB_STAFF"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleAdmin, RoleDoctor, RoleReceptionist, RoleLabStaff}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist, RoleLabStaff:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
