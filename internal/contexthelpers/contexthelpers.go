// Package contexthelpers carries per-request values set by the middleware chain down to the handlers.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const (
	gameIDKey    = contextKey("gameID")
	csrfTokenKey = contextKey("csrfToken")
	cspNonceKey  = contextKey("cspNonce")
)

func with(r *http.Request, key contextKey, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}

func get(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// SetGameID binds the session's game to the request.
func SetGameID(r *http.Request, gameID string) *http.Request { return with(r, gameIDKey, gameID) }

// GameID returns the id of the game bound to the request's session, or "" when no game is started.
func GameID(ctx context.Context) string { return get(ctx, gameIDKey) }

func SetCSRFToken(r *http.Request, token string) *http.Request { return with(r, csrfTokenKey, token) }

func CSRFToken(ctx context.Context) string { return get(ctx, csrfTokenKey) }

// SetCSPNonce stores the nonce that inline scripts and styles on the case board must carry.
func SetCSPNonce(r *http.Request, nonce string) *http.Request { return with(r, cspNonceKey, nonce) }

func CSPNonce(ctx context.Context) string { return get(ctx, cspNonceKey) }
