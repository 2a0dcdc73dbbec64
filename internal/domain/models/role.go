// internal/domain/models/role.go
package models

import "strings"

// Role is a member's role within a circle. The set is closed; anything
// outside Roles is rejected at the boundary.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

// Roles lists every valid role, most privileged first.
var Roles = []Role{RoleAdmin, RoleContributor, RoleViewer}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// ParseRole normalizes s and returns the matching role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
