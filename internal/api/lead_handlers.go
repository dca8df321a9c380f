package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/csvimport"
)

// maxImportSize caps CSV uploads at 10 MB.
const maxImportSize = 10 << 20

type createLeadRequest struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Email       string `json:"email"`
	Notes       string `json:"notes"`
}

type leadResponse struct {
	ID           string     `json:"id"`
	CampaignID   string     `json:"campaign_id"`
	PhoneNumber  string     `json:"phone_number"`
	Name         string     `json:"name,omitempty"`
	Company      string     `json:"company,omitempty"`
	Email        string     `json:"email,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	Outcome      string     `json:"outcome,omitempty"`
	FailReason   string     `json:"fail_reason,omitempty"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	CreatedAt    time.Time  `json:"created_at"`
	LastCalledAt *time.Time `json:"last_called_at,omitempty"`
}

func toLeadResponse(l *campaign.Lead) leadResponse {
	return leadResponse{
		ID:           l.ID,
		CampaignID:   l.CampaignID,
		PhoneNumber:  l.PhoneNumber,
		Name:         l.Name,
		Company:      l.Company,
		Email:        l.Email,
		Notes:        l.Notes,
		Status:       string(l.Status),
		Outcome:      l.Outcome,
		FailReason:   l.FailReason,
		RetryCount:   l.RetryCount,
		MaxRetries:   l.MaxRetries,
		CreatedAt:    l.CreatedAt,
		LastCalledAt: l.LastCalledAt,
	}
}

func (s *Server) handleAddLead(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	if !c.CanAcceptLeads() {
		s.writeDomainError(w, &campaign.InvalidCampaignStateError{
			CurrentStatus: c.Status,
			Action:        "add leads to",
		})
		return
	}

	var req createLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := campaign.NewLead(req.PhoneNumber)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	l.CampaignID = c.ID
	l.Name = req.Name
	l.Company = req.Company
	l.Email = req.Email
	l.Notes = req.Notes

	if err := s.leads.Create(r.Context(), l); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeadResponse(l))
}

// handleRemoveLead deletes a lead that has not been dialed yet. Leads with
// any call activity stay for the record.
func (s *Server) handleRemoveLead(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	l, err := s.leads.GetByID(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if l == nil || l.CampaignID != c.ID {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	if err := l.Removable(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.leads.Delete(r.Context(), l.ID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": l.ID})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	list, err := s.leads.ListByCampaign(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make([]leadResponse, 0, len(list))
	for i := range list {
		out = append(out, toLeadResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// importError is one rejected import row. Row-level parse failures carry the
// file line; duplicates carry the offending phone number.
type importError struct {
	Row   int    `json:"row,omitempty"`
	Phone string `json:"phone,omitempty"`
	Error string `json:"error"`
}

type importResponse struct {
	ImportedCount int           `json:"imported_count"`
	SkippedCount  int           `json:"skipped_count"`
	Errors        []importError `json:"errors"`
}

// handleImportLeads ingests a multipart CSV upload. Valid rows become leads;
// invalid rows and duplicates are reported per-row and counted as skipped.
func (s *Server) handleImportLeads(w http.ResponseWriter, r *http.Request) {
	c := s.loadCampaign(w, r)
	if c == nil {
		return
	}
	if !c.CanAcceptLeads() {
		s.writeDomainError(w, &campaign.InvalidCampaignStateError{
			CurrentStatus: c.Status,
			Action:        "import leads into",
		})
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	parsed, err := csvimport.Parse(content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.leads.PhoneNumbers(r.Context(), c.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	resp := importResponse{Errors: []importError{}}
	for _, rowErr := range parsed.Errors {
		resp.Errors = append(resp.Errors, importError{Row: rowErr.Row, Error: rowErr.Error})
		resp.SkippedCount++
	}

	for _, p := range parsed.Leads {
		if _, dup := existing[p.PhoneNumber]; dup {
			resp.Errors = append(resp.Errors, importError{Phone: p.PhoneNumber, Error: "duplicate phone number"})
			resp.SkippedCount++
			continue
		}

		l, err := campaign.NewLead(p.PhoneNumber)
		if err != nil {
			resp.Errors = append(resp.Errors, importError{Phone: p.PhoneNumber, Error: err.Error()})
			resp.SkippedCount++
			continue
		}
		l.CampaignID = c.ID
		l.Name = p.Name
		l.Company = p.Company
		l.Email = p.Email
		l.Notes = p.Notes

		if err := s.leads.Create(r.Context(), l); err != nil {
			resp.Errors = append(resp.Errors, importError{Phone: p.PhoneNumber, Error: err.Error()})
			resp.SkippedCount++
			continue
		}
		existing[p.PhoneNumber] = struct{}{}
		resp.ImportedCount++
	}

	s.log.Info("lead import finished",
		"campaign_id", c.ID,
		"imported", resp.ImportedCount,
		"skipped", resp.SkippedCount,
	)
	writeJSON(w, http.StatusOK, resp)
}
