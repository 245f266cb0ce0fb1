package middleware

import (
	"context"

	"github.com/google/uuid"
	pkgAuth "github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated caller; ok is false for anonymous requests.
func ActorFromContext(ctx context.Context) (pkgAuth.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return pkgAuth.Actor{}, false
	}
	role := enums.UserRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return pkgAuth.Actor{}, false
	}
	return pkgAuth.Actor{UserID: id, Role: role}, true
}

// WithActor injects the caller into the context.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID.String())
	return context.WithValue(ctx, ctxRole, string(role))
}
