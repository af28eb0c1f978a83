// Package authz centralizes the ownership check shared by attendance
// updates, submission grading/deletion and assignment edits. Identity is
// always passed explicitly; nothing here reads ambient state.
package authz

import (
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

// Identity is the acting caller, extracted from the verified token at the
// transport boundary and handed down as an argument.
type Identity struct {
	UserID string
	Role   models.UserRole
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Policy decides whether an identity may manage a teacher-owned resource.
// AdminBypass is an explicit deployment choice, not an implicit default.
type Policy struct {
	AdminBypass bool
}

// ErrNotOwner is returned when the identity does not own the target.
var ErrNotOwner = result.Forbidden("NOT_RESOURCE_OWNER", "not authorized to manage this resource")

// CanManage checks that the identity equals the owning teacher of the
// target, or is an admin when the bypass is enabled.
func (p Policy) CanManage(id Identity, ownerTeacherID string) result.Empty {
	if id.UserID != "" && id.UserID == ownerTeacherID {
		return result.OK()
	}
	if p.AdminBypass && id.IsAdmin() {
		return result.OK()
	}
	return result.Err[result.Unit](ErrNotOwner)
}
