// internal/app/policy/circlepolicy/circlepolicy.go
package circlepolicy

import (
	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/domain/models"
)

// Operation is something a circle member may try to do.
type Operation int

const (
	OpRead Operation = iota
	OpPostBrew
	OpDeleteOwnBrew
	OpDeleteAnyBrew
	OpManageMembers
	OpUpdateSettings
	OpDeleteCircle

	numOperations
)

var opNames = [numOperations]string{
	OpRead:           "read",
	OpPostBrew:       "post_brew",
	OpDeleteOwnBrew:  "delete_own_brew",
	OpDeleteAnyBrew:  "delete_any_brew",
	OpManageMembers:  "manage_members",
	OpUpdateSettings: "update_settings",
	OpDeleteCircle:   "delete_circle",
}

func (o Operation) String() string {
	if o < 0 || o >= numOperations {
		return "unknown"
	}
	return opNames[o]
}

// Operations lists every operation in table order.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for o := Operation(0); o < numOperations; o++ {
		ops = append(ops, o)
	}
	return ops
}

// capabilities is the whole permission matrix. OpDeleteCircle for admin is
// further restricted to the creator by RequireDeleteCircle.
var capabilities = map[models.Role][numOperations]bool{
	models.RoleAdmin: {
		OpRead:           true,
		OpPostBrew:       true,
		OpDeleteOwnBrew:  true,
		OpDeleteAnyBrew:  true,
		OpManageMembers:  true,
		OpUpdateSettings: true,
		OpDeleteCircle:   true,
	},
	models.RoleContributor: {
		OpRead:          true,
		OpPostBrew:      true,
		OpDeleteOwnBrew: true,
	},
	models.RoleViewer: {
		OpRead: true,
	},
}

// Check reports whether role may perform op. Unknown roles and operations
// are denied.
func Check(role models.Role, op Operation) bool {
	row, ok := capabilities[role]
	if !ok || op < 0 || op >= numOperations {
		return false
	}
	return row[op]
}

// Require returns a *circleerr.PermissionDeniedError when Check fails.
func Require(role models.Role, op Operation) error {
	if Check(role, op) {
		return nil
	}
	return circleerr.PermissionDenied(string(role), op.String())
}

// RequireDeleteBrew picks delete-own or delete-any depending on authorship.
func RequireDeleteBrew(role models.Role, isAuthor bool) error {
	if isAuthor {
		return Require(role, OpDeleteOwnBrew)
	}
	return Require(role, OpDeleteAnyBrew)
}

// RequireDeleteCircle allows only the creator, and only while they still
// hold a role that may delete.
func RequireDeleteCircle(role models.Role, isCreator bool) error {
	if !isCreator {
		return circleerr.ErrCreatorOnlyOperation
	}
	return Require(role, OpDeleteCircle)
}
