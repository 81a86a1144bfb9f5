package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"suiteagent/internal/ondemand"
)

func (s *Server) chatRoutes(r routeGroup) {
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/ping-ondemand-config", s.handlePingOnDemand).Methods(http.MethodGet)
}

// handleAsk answers in {"answer": ...} on every path so voice clients can
// read the result back directly.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Configured() {
		s.logger.Error("On-demand API key is not configured")
		writeJSON(w, http.StatusInternalServerError, envelope{"answer": ondemand.FriendlyMessage(ondemand.ErrNotConfigured)})
		return
	}

	var req map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req == nil {
		writeJSON(w, http.StatusBadRequest, envelope{"answer": "Please tell me what your question is."})
		return
	}
	raw, present := req["query"]
	if !present {
		writeJSON(w, http.StatusBadRequest, envelope{"answer": "Please tell me what your question is."})
		return
	}
	query, ok := raw.(string)
	if !ok || strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, envelope{"answer": "Your question seems to be empty. Please try again."})
		return
	}

	s.logger.Info("Chat query received", "length", len(query))
	answer, err := s.chat.Ask(r.Context(), query)
	if err != nil {
		s.logger.Error("Chat query failed", "error", err, "requestID", requestID(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, envelope{"answer": ondemand.FriendlyMessage(err)})
		return
	}

	s.logger.Info("Replying to chat query", "answerLength", len(answer))
	writeJSON(w, http.StatusOK, envelope{"answer": answer})
}

// handlePingOnDemand reports whether the chat API is configured and can open a session.
func (s *Server) handlePingOnDemand(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Configured() {
		writeJSON(w, http.StatusInternalServerError, envelope{
			"message":          "OnDemand Chat API Key is NOT configured correctly (missing).",
			"api_key_status":   "MISCONFIGURED",
			"external_user_id": s.chat.ExternalUserID(),
		})
		return
	}

	sessionID, err := s.chat.CreateSession(r.Context())
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ondemand.ErrNotConfigured) {
			status = http.StatusInternalServerError
		}
		s.logger.Warn("Test chat session failed", "error", err)
		writeJSON(w, status, envelope{
			"message":          "Failed to create a test session with OnDemand Chat API. Check API key and service status.",
			"api_key_status":   "CONFIGURED (but session creation failed)",
			"external_user_id": s.chat.ExternalUserID(),
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":          "Successfully created a test session with OnDemand Chat API.",
		"api_key_status":   "CONFIGURED (key seems to work for session creation)",
		"external_user_id": s.chat.ExternalUserID(),
		"test_session_id":  sessionID,
	})
}
