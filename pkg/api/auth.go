package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bookstore/pkg/otel"
	"bookstore/pkg/session"
)

type identityKey struct{}

// identityFrom returns the caller set by authMiddleware.
func identityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(session.Identity)
	return id, ok
}

// loginRequest represents login credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler handles user login and session creation.
// @Summary Login
// @Description Authenticates user and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200 {object} session.Identity
// @Failure 400 {object} ErrorResponse
// @Router /login [post]
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid credentials")
		return
	}
	sid, id, err := s.sessions.Create(ctx, req.Username)
	if errors.Is(err, session.ErrInvalidUsername) {
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid credentials")
		return
	}
	if err != nil {
		s.log.Error(ctx, "create session", "error", err)
		writeError(w, http.StatusInternalServerError, "session_error", "session error")
		return
	}
	ttl := s.sessions.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info(ctx, "login", "username", id.Username, "role", string(id.Role))
	writeJSON(w, http.StatusOK, id)
}

// logoutHandler ends the caller's session.
// @Summary Logout
// @Success 204
// @Security ApiKeyAuth
// @Router /logout [post]
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "logoutHandler")
	defer span.End()

	c, err := r.Cookie(sessionCookie)
	if err == nil {
		if err := s.sessions.Delete(ctx, c.Value); err != nil {
			s.log.Error(ctx, "delete session", "error", err)
			writeError(w, http.StatusInternalServerError, "session_error", "session error")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// authMiddleware ensures a valid session exists.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		id, err := s.sessions.Lookup(r.Context(), c.Value)
		if errors.Is(err, session.ErrNoSession) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		if err != nil {
			s.log.Error(r.Context(), "lookup session", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", "session store unavailable")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole rejects callers whose role does not include role.
func (s *Server) requireRole(role session.Role, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok || !id.Has(role) {
			writeError(w, http.StatusForbidden, "forbidden", "requires role "+string(role))
			return
		}
		next(w, r)
	})
}
