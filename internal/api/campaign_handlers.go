package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

type createCampaignRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DialRatio   float64 `json:"dial_ratio"`
	CallerID    string  `json:"caller_id"`
}

type campaignResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DialRatio   float64    `json:"dial_ratio"`
	CallerID    string     `json:"caller_id,omitempty"`
	LeadCount   int        `json:"lead_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toCampaignResponse(c *campaign.Campaign, leadCount int) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Status:      string(c.Status),
		DialRatio:   c.DialRatio,
		CallerID:    c.CallerID,
		LeadCount:   leadCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
	}
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DialRatio == 0 {
		req.DialRatio = campaign.DefaultDialRatio
	}

	c, err := campaign.New(req.Name, req.Description, req.DialRatio, req.CallerID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.campaigns.Create(r.Context(), c); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(c, 0))
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.campaigns.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]campaignResponse, 0, len(list))
	for i := range list {
		count, err := s.leads.CountByCampaign(r.Context(), list[i].ID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		out = append(out, toCampaignResponse(&list[i], count))
	}
	writeJSON(w, http.StatusOK, out)
}

// loadCampaign fetches the campaign in the URL or writes a 404.
func (s *Server) loadCampaign(w http.ResponseWriter, r *http.Request) *campaign.Campaign {
	id := chi.URLParam(r, "campaignID")
	c, err := s.campaigns.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return nil
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return nil
	}
	return c
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	count, err := s.leads.CountByCampaign(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(c, count))
}

// lifecycle handlers delegate to the engine so the pacing loop starts and
// stops together with the status change.

func (s *Server) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	s.campaignLifecycle(w, r, s.engine.StartCampaign)
}

func (s *Server) handlePauseCampaign(w http.ResponseWriter, r *http.Request) {
	s.campaignLifecycle(w, r, s.engine.PauseCampaign)
}

func (s *Server) handleResumeCampaign(w http.ResponseWriter, r *http.Request) {
	s.campaignLifecycle(w, r, s.engine.ResumeCampaign)
}

func (s *Server) handleStopCampaign(w http.ResponseWriter, r *http.Request) {
	s.campaignLifecycle(w, r, s.engine.StopCampaign)
}

func (s *Server) campaignLifecycle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (*campaign.Campaign, error),
) {
	id := chi.URLParam(r, "campaignID")
	c, err := op(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	count, err := s.leads.CountByCampaign(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(c, count))
}

func (s *Server) handleCampaignStats(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	stats, err := s.engine.Stats(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCampaignHealth(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	health, err := s.engine.DialingHealth(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}
