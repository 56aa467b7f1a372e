package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// CookieName is the cookie carrying the session token.
const CookieName = "gwp_session"

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated username.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKey{}, username)
}

// UserFromContext returns the authenticated username, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKey{}).(string)
	return username, ok && username != ""
}

// SetSessionCookie stores token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromRequest extracts the token from the Authorization header or the
// session cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// UserFromRequest returns the user of the token carried by r, if valid.
func (a *Authenticator) UserFromRequest(r *http.Request) (string, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		return "", false
	}

	username, err := a.Validate(token)
	if err != nil {
		slog.Debug("rejecting request token", "path", r.URL.Path, "err", err.Error())
		return "", false
	}
	return username, true
}

// Middleware lets requests carrying a valid token through and hands every
// other request to unauthorized.
func (a *Authenticator) Middleware(unauthorized http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok := a.UserFromRequest(r)
			if !ok {
				unauthorized.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), username)))
		})
	}
}
