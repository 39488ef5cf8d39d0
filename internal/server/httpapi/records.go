package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
	Omitted []string        `json:"omitted,omitempty"`
}

type startSessionRequest struct {
	Session  models.SymptomSession `json:"session"`
	Messages []models.Message      `json:"messages"`
}

type sessionHistoryResponse struct {
	Session  models.SymptomSession `json:"session"`
	Messages []models.Message      `json:"messages"`
	Omitted  []string              `json:"omitted,omitempty"`
}

type avatarUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type avatarResponse struct {
	URL string `json:"url"`
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	profile, report, err := s.records.GetProfile(r.Context(), p.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{Profile: profile, Omitted: report.OmittedNames()})
}

func (s *Server) SaveProfile(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req models.Profile
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, report, err := s.records.SaveProfile(r.Context(), p.UserID, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{Profile: profile, Omitted: report.OmittedNames()})
}

func (s *Server) CreateAvatarUpload(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	key, url, err := s.records.AvatarUploadURL(r.Context(), p.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, avatarUploadResponse{Key: key, URL: url})
}

func (s *Server) GetAvatar(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	url, err := s.records.AvatarURL(r.Context(), p.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, avatarResponse{URL: url})
}

func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req startSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.records.StartSession(r.Context(), p.UserID, req.Session, req.Messages)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) AddMessage(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	sessionID := chi.URLParam(r, "id")

	var req models.Message
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := s.records.AddMessage(r.Context(), p.UserID, sessionID, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	history, err := s.records.History(r.Context(), p.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := make([]sessionHistoryResponse, 0, len(history))
	for _, h := range history {
		out = append(out, sessionHistoryResponse{Session: h.Session, Messages: h.Messages, Omitted: h.Omitted})
	}
	respondJSON(w, http.StatusOK, out)
}

// AuditLog returns the caller's most recent audit entries; ?limit= caps the
// count and the service clamps it further.
func (s *Server) AuditLog(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.audit.Recent(r.Context(), p.UserID, limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}
