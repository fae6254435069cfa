package api

import "context"

// contextKey is a private type so request-context values set here cannot
// collide with keys from other packages.
type contextKey string

const usernameKey contextKey = "username"

// WithUsername returns a context carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// usernameFromContext returns the authenticated username, or "" when the
// request never passed the auth middleware.
func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
