package internal

import "context"

type ctxKey string

const (
	ContextUserKey ctxKey = "user"
)

// CurrentUser is the authenticated caller as seen by request handlers.
type CurrentUser struct {
	ID       int64
	Username string
	Role     string
}

func UserFromContext(ctx context.Context) *CurrentUser {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(ContextUserKey).(*CurrentUser); ok {
		return u
	}
	return nil
}

func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// ActorID returns the caller id, or nil for system actions.
func ActorID(ctx context.Context) *int64 {
	u := UserFromContext(ctx)
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
