package api

import (
	"net/http"

	"github.com/paralleldialer/paralleldialer/internal/api/middleware"
	"github.com/paralleldialer/paralleldialer/internal/database"
)

// tokenResponse is the login payload: an access/refresh token pair.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// handleLogin authenticates a username/password form and issues a token pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	ok, err := database.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	access, _, err := middleware.GenerateToken(s.cfg.Secret, user.Username, user.Role, middleware.TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	refresh, _, err := middleware.GenerateToken(s.cfg.Secret, user.Username, user.Role, middleware.TokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.log.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

// handleRefresh exchanges a refresh token for a new access token. The user
// must still exist.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := middleware.ValidateToken(s.cfg.Secret, req.RefreshToken, middleware.TokenTypeRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), claims.Subject)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	access, _, err := middleware.GenerateToken(s.cfg.Secret, user.Username, user.Role, middleware.TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access, TokenType: "bearer"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), p.Username)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}
