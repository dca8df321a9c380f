package api

import (
	"net/http"

	"github.com/paralleldialer/paralleldialer/internal/api/middleware"
	"github.com/paralleldialer/paralleldialer/internal/database/models"
	"github.com/paralleldialer/paralleldialer/internal/events"
)

// wsIdentity resolves the token query parameter to a principal. WebSocket
// clients cannot set an Authorization header from the browser API, so the
// access token rides in the URL.
func (s *Server) wsIdentity(r *http.Request) *middleware.Claims {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil
	}
	claims, err := middleware.ValidateToken(s.cfg.Secret, token, middleware.TokenTypeAccess)
	if err != nil {
		return nil
	}
	return claims
}

func (s *Server) handleOperatorWS(w http.ResponseWriter, r *http.Request) {
	claims := s.wsIdentity(r)
	if claims == nil {
		events.RejectUnauthorized(w, r)
		return
	}
	s.hub.ServeWS(w, r, events.Identity{ID: claims.Subject, Username: claims.Subject}, events.RoleOperator)
}

// handleDashboardWS serves the supervisor channel. Only admins may attach.
func (s *Server) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	claims := s.wsIdentity(r)
	if claims == nil || claims.Role != models.RoleAdmin {
		events.RejectUnauthorized(w, r)
		return
	}
	s.hub.ServeWS(w, r, events.Identity{ID: claims.Subject, Username: claims.Subject}, events.RoleDashboard)
}
