package api

import (
	"errors"
	"net/http"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/orchestrator"
)

// writeDomainError maps core errors onto HTTP status codes. Validation,
// state-machine and duplicate errors are client mistakes; anything
// unrecognized is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *campaign.ValidationError
		stateErr      *campaign.InvalidCampaignStateError
		leadErr       *campaign.InvalidLeadTransitionError
		retryErr      *campaign.RetryLimitError
		dupErr        *campaign.DuplicatePhoneError
	)

	switch {
	case errors.Is(err, orchestrator.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, "campaign not found")
	case errors.As(err, &validationErr),
		errors.As(err, &stateErr),
		errors.As(err, &leadErr),
		errors.As(err, &retryErr),
		errors.As(err, &dupErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
