package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minhdn/towerdesk/internal/agent"
	"github.com/minhdn/towerdesk/internal/domain"
	"github.com/minhdn/towerdesk/internal/tenant"
	"github.com/minhdn/towerdesk/internal/version"
)

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /session/new", s.handleSessionNew)
	mux.HandleFunc("DELETE /session/{id}", s.handleSessionDelete)
	mux.HandleFunc("POST /session/{id}/reset", s.handleSessionReset)
	mux.HandleFunc("GET /sessions", s.handleSessionList)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the POST /chat reply, shared with the WebSocket frames.
type chatResponse struct {
	Success       bool                `json:"success"`
	Response      string              `json:"response"`
	SessionID     string              `json:"session_id"`
	FunctionCalls []domain.Invocation `json:"function_calls"`
	Error         string              `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{
			Success: false, Error: "invalid request body", FunctionCalls: []domain.Invocation{},
		})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{
			Success: false, Error: "message is required", FunctionCalls: []domain.Invocation{},
		})
		return
	}

	building, _ := tenant.From(r.Context())
	sess := s.sessions.Resolve(req.SessionID, building)

	// Mid-turn failures come back as degraded results, never as an
	// HTTP error: the caller still gets a fallback answer and its
	// session id.
	result := s.runner.Run(r.Context(), sess, req.Message)
	writeJSON(w, http.StatusOK, turnToResponse(result))
}

func turnToResponse(result *agent.TurnResult) chatResponse {
	calls := result.Invocations
	if calls == nil {
		calls = []domain.Invocation{}
	}
	return chatResponse{
		Success:       result.Error == "",
		Response:      result.Response,
		SessionID:     result.SessionID,
		FunctionCalls: calls,
		Error:         result.Error,
	}
}

func (s *Server) handleSessionNew(w http.ResponseWriter, r *http.Request) {
	building, _ := tenant.From(r.Context())
	sess := s.sessions.Create(building)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       sess.ID,
		"building_id":      sess.BuildingID,
		"is_authenticated": sess.Authenticated(),
		"message":          "Phiên trò chuyện mới đã được tạo",
	})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false, "error": "Session not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "Session deleted",
	})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Reset(id); err != nil {
		if errors.Is(err, agent.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false, "error": "Session not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "Conversation reset",
	})
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	infos := s.sessions.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_sessions": len(infos),
		"sessions":       infos,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": s.sessions.Count(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Trợ lý ảo quản lý chung cư",
		"version": version.Version,
		"endpoints": map[string]string{
			"chat":     "POST /chat",
			"ws":       "GET /ws",
			"health":   "GET /health",
			"sessions": "GET /sessions",
		},
	})
}
