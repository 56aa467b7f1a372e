package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/swellcycle/surfboard-gwp/internal/auth"
)

type loginView struct {
	// Username is the logged in user, always empty on this page
	Username   string
	Login      string
	Error      string
	Configured bool
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.auth.UserFromRequest(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginView{Configured: s.auth.Configured()})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		slog.Warn("login rate limit exceeded", "client", auth.ClientIP(r))
		s.render(w, http.StatusTooManyRequests, "login.html", loginView{
			Error:      "Too many login attempts, try again in a minute.",
			Configured: s.auth.Configured(),
		})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	if err := s.auth.CheckPassword(username, r.PostFormValue("password")); err != nil {
		slog.Info("login rejected", "client", auth.ClientIP(r), "err", err.Error())
		message := "Invalid username or password."
		if errors.Is(err, auth.ErrNotConfigured) {
			message = "Login is disabled until a credential is configured."
		}
		s.render(w, http.StatusUnauthorized, "login.html", loginView{
			Login:      username,
			Error:      message,
			Configured: s.auth.Configured(),
		})
		return
	}

	token, expiresAt, err := s.auth.IssueToken(username)
	if err != nil {
		slog.Error("failed to issue session token", "err", err.Error())
		http.Error(w, "authentication error", http.StatusInternalServerError)
		return
	}

	slog.Info("user logged in", "user", username)
	auth.SetSessionCookie(w, r, token, expiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleUnauthorized answers requests without a valid token. Browsers only
// get the login page, API clients a json error.
func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	s.render(w, http.StatusUnauthorized, "login.html", loginView{Configured: s.auth.Configured()})
}
