package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/services"
)

type erasureRequest struct {
	Action string `json:"action"`
}

type erasureResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	DeletedAt string `json:"deletedAt"`
}

type erasureFailure struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// DeleteAllData handles POST /functions/v1/secure-delete-patient-data.
func (s *Server) DeleteAllData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := bearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing authorization header")
		return
	}

	principal, err := s.erasure.Authorize(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthorized) && !errors.Is(err, common.ErrMissingCredential) {
			s.logger.Error(ctx, "authorize", "error", err)
		}
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req erasureRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action != common.ErasureAction {
		respondError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	result, err := s.erasure.Erase(ctx, principal)
	if err != nil {
		var perr *services.PartialDeletionError
		if errors.As(err, &perr) {
			respondJSON(w, http.StatusInternalServerError, erasureFailure{
				Error:   "Failed to delete data",
				Details: perr.Details(),
			})
			return
		}
		s.logger.Error(ctx, "erasure", "user_id", principal.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, erasureResponse{
		Success:   true,
		Message:   "All patient data has been securely deleted",
		DeletedAt: result.CompletedAt.UTC().Format(models.TimestampLayout),
	})
}
