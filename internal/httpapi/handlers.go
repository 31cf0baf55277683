package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/agent"
	"github.com/lbaylis/hearth/internal/skills"
)

// writeJSON serialises data as JSON and writes it to the response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes a JSON error envelope to the response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Status agent.Status `json:"status"`
	Reply  string       `json:"reply,omitempty"`
	Steps  int          `json:"steps"`
}

// handleChat feeds one user message into the loop and returns the outcome.
// The request blocks while the loop waits on the model or on an approval;
// clients resolve approvals over the approvals endpoints meanwhile.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	outcome, err := s.loop.Run(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", zap.Error(err))
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{
		Status: outcome.Status,
		Reply:  outcome.Reply,
		Steps:  outcome.Steps,
	})
}

func (s *Server) handleListApprovals(w http.ResponseWriter, _ *http.Request) {
	pending := s.approver.Pending()
	s.writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

type resolveRequest struct {
	Approve bool   `json:"approve"`
	Actor   string `json:"actor,omitempty"`
}

func (s *Server) handleResolveApproval(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor := req.Actor
	if actor == "" {
		actor = "api"
	}
	if err := s.approver.Resolve(id, req.Approve, actor); err != nil {
		if errors.Is(err, ErrUnknownRequest) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "approved": req.Approve})
}

type skillSummary struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      skills.Status `json:"status"`
	Permissions []string      `json:"permissions,omitempty"`
	Version     int           `json:"version,omitempty"`
}

func (s *Server) handleListSkills(w http.ResponseWriter, _ *http.Request) {
	records, err := s.manager.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]skillSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, skillSummary{
			Name:        rec.Manifest.Name,
			Description: rec.Manifest.Description,
			Status:      rec.Status,
			Permissions: rec.Manifest.Permissions,
			Version:     rec.Manifest.Version,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"skills": out})
}

// handleKill trips the loop's kill switch. The loop observes it before its
// next model call; an in-flight tool execution still completes.
func (s *Server) handleKill(w http.ResponseWriter, _ *http.Request) {
	s.loop.Kill()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "kill requested"})
}
