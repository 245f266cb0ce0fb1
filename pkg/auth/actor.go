package auth

import (
	"github.com/google/uuid"
	"github.com/threadline/threadline-backend/pkg/enums"
)

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsSuperAdmin reports whether the actor bypasses ownership scoping.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == enums.UserRoleSuperAdmin
}

// OwnsResource reports whether the actor may manage a resource created by createdBy.
func (a Actor) OwnsResource(createdBy *uuid.UUID) bool {
	if a.IsSuperAdmin() {
		return true
	}
	return createdBy != nil && *createdBy == a.UserID
}
