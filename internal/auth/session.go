package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// Session identifies the visitor for the lifetime of a request. Every
// visitor has one, signed in or not; SessionID is the owner key all
// records are filed under.
type Session struct {
	SessionID string
	Username  string // empty for anonymous sessions
	Lang      string
}

// ContextWithSession adds the session to the context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext retrieves the session, or nil when the session
// middleware has not run.
func SessionFromContext(ctx context.Context) *Session {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return sess
}

// MustSessionFromContext retrieves the session.
// Panics if not present (use only when session middleware has run).
func MustSessionFromContext(ctx context.Context) *Session {
	sess := SessionFromContext(ctx)
	if sess == nil {
		panic("session not found - ensure session middleware is applied")
	}
	return sess
}
