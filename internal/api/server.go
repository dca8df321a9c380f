// Package api exposes the HTTP surface: REST endpoints under /api/v1,
// Twilio webhook callbacks, and the operator/dashboard WebSocket channels.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/paralleldialer/paralleldialer/internal/api/middleware"
	"github.com/paralleldialer/paralleldialer/internal/database"
	"github.com/paralleldialer/paralleldialer/internal/events"
	"github.com/paralleldialer/paralleldialer/internal/orchestrator"
)

// Config carries the API-facing settings.
type Config struct {
	// Secret signs access, refresh and WebSocket tokens.
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Twilio credentials. AuthToken verifies webhook signatures; the API
	// key pair signs Voice SDK client tokens.
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioAppSID       string
	TwilioAPIKeySID    string
	TwilioAPIKeySecret string

	// PublicBaseURL is the externally visible URL webhooks were signed
	// against.
	PublicBaseURL string
	// ValidateSignature enables Twilio webhook signature verification.
	ValidateSignature bool

	CORSOrigins []string
}

// Server holds the handler dependencies.
type Server struct {
	cfg       Config
	campaigns database.CampaignRepository
	leads     database.LeadRepository
	users     database.UserRepository
	engine    *orchestrator.Engine
	hub       *events.Hub
	log       *slog.Logger
}

// NewServer wires the API server.
func NewServer(
	cfg Config,
	campaigns database.CampaignRepository,
	leads database.LeadRepository,
	users database.UserRepository,
	engine *orchestrator.Engine,
	hub *events.Hub,
	log *slog.Logger,
) *Server {
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		campaigns: campaigns,
		leads:     leads,
		users:     users,
		engine:    engine,
		hub:       hub,
		log:       log,
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(s.cfg.CORSOrigins))

	r.Get("/health", s.handleHealth)

	authLimiter := middleware.NewLoginRateLimiter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(authLimiter))
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.With(middleware.RequireAuth(s.cfg.Secret)).Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.cfg.Secret))

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", s.handleCreateCampaign)
				r.Get("/", s.handleListCampaigns)
				r.Route("/{campaignID}", func(r chi.Router) {
					r.Get("/", s.handleGetCampaign)
					r.Post("/start", s.handleStartCampaign)
					r.Post("/pause", s.handlePauseCampaign)
					r.Post("/resume", s.handleResumeCampaign)
					r.Post("/stop", s.handleStopCampaign)
					r.Get("/stats", s.handleCampaignStats)
					r.Get("/health", s.handleCampaignHealth)
					r.Post("/leads", s.handleAddLead)
					r.Get("/leads", s.handleListLeads)
					r.Post("/leads/import", s.handleImportLeads)
					r.Delete("/leads/{leadID}", s.handleRemoveLead)
				})
			})

			r.Post("/twilio/token", s.handleTwilioToken)
		})
	})

	webhookLimiter := middleware.NewWebhookRateLimiter()
	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Use(middleware.RateLimit(webhookLimiter))
		r.Use(s.verifyTwilioSignature)
		r.Post("/status", s.handleStatusWebhook)
		r.Post("/amd", s.handleAMDWebhook)
		r.Post("/voice", s.handleVoiceWebhook)
	})

	r.Get("/ws/operator", s.handleOperatorWS)
	r.Get("/ws/dashboard", s.handleDashboardWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
