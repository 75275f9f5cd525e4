package api

import (
	"context"
)

type contextKey string

const sessionKeyContextKey contextKey = "session_key"

// SessionKeyFromContext extracts the browser session key from context
func SessionKeyFromContext(ctx context.Context) string {
	key, ok := ctx.Value(sessionKeyContextKey).(string)
	if !ok {
		return ""
	}
	return key
}

// ContextWithSessionKey adds the browser session key to context
func ContextWithSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, sessionKeyContextKey, key)
}
