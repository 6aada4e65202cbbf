// internal/handlers/utils.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pwalczyk/amici/internal/auth"
)

// extractCookieToken pulls a named cookie value out of a raw Cookie
// header, or returns empty if absent.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requireCaller resolves the authenticated caller id from the session
// cookie. Authorization failures are written immediately (401/403) and
// never reach the stores; the bool reports whether the caller may proceed.
func requireCaller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	cookieHeader := r.Header.Get("Cookie")
	if !strings.Contains(cookieHeader, auth.CookieName+"=") {
		http.Error(w, "missing "+auth.CookieName, http.StatusUnauthorized)
		return uuid.Nil, false
	}
	token := extractCookieToken(cookieHeader, auth.CookieName)

	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return uuid.Nil, false
	}
	callerID, err := uuid.Parse(sub)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return callerID, true
}
