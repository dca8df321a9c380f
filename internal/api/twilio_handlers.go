package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/paralleldialer/paralleldialer/internal/api/middleware"
)

// voiceTokenTTL is the lifetime of a browser Voice SDK token.
const voiceTokenTTL = time.Hour

type twilioTokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
}

// handleTwilioToken issues a Twilio Voice access token so the operator's
// browser softphone can register. The token is signed with the API key secret
// and carries a voice grant for the TwiML application.
func (s *Server) handleTwilioToken(w http.ResponseWriter, r *http.Request) {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAPIKeySID == "" ||
		s.cfg.TwilioAPIKeySecret == "" || s.cfg.TwilioAppSID == "" {
		writeError(w, http.StatusServiceUnavailable, "twilio credentials not configured")
		return
	}

	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"jti": fmt.Sprintf("%s-%d", s.cfg.TwilioAPIKeySID, now.Unix()),
		"iss": s.cfg.TwilioAPIKeySID,
		"sub": s.cfg.TwilioAccountSID,
		"iat": now.Unix(),
		"exp": now.Add(voiceTokenTTL).Unix(),
		"grants": map[string]any{
			"identity": p.Username,
			"voice": map[string]any{
				"outgoing": map[string]any{
					"application_sid": s.cfg.TwilioAppSID,
				},
				"incoming": map[string]any{
					"allow": true,
				},
			},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Twilio requires this content type in the JOSE header.
	token.Header["cty"] = "twilio-fpa;v=1"

	signed, err := token.SignedString([]byte(s.cfg.TwilioAPIKeySecret))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, twilioTokenResponse{Token: signed, Identity: p.Username})
}
