package server

import (
	"net/http"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"message": "Google Suite Agent is running. Services: /calendar, /docs, /sheets, /drive, /slides, /chat.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "UP", "message": "Google Suite Agent is healthy."})
}

// handleDefaultToken returns an access token for the pre-configured user.
func (s *Server) handleDefaultToken(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Google.HasDefaultUser() {
		s.fail(w, r, invalid("DEFAULT_USER_REFRESH_TOKEN", "Default user client id and refresh token are not configured"), "Token")
		return
	}

	token, err := s.tokens.AccessTokenFor(r.Context(), s.cfg.Google.DefaultUserClientID, s.cfg.Google.DefaultUserRefreshToken)
	if err != nil {
		s.fail(w, r, err, "Token")
		return
	}
	writeOK(w, envelope{"access_token": token})
}
