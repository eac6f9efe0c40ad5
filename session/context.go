package session

import "context"

type contextKey struct{}

// CookieName is the cookie carrying the session id
const CookieName = "medsafe_session"

// WithID returns a copy of ctx carrying the session id
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session id stored by WithID, or ""
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
