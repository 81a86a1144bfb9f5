package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"suiteagent/internal/ondemand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		configured bool
		askErr     error
		status     int
		answer     string
	}{
		{"answered", `{"query":"what is on today?"}`, true, nil, http.StatusOK, "You have two meetings."},
		{"missing query", `{}`, true, nil, http.StatusBadRequest, "Please tell me what your question is."},
		{"not json", `hello`, true, nil, http.StatusBadRequest, "Please tell me what your question is."},
		{"blank query", `{"query":"   "}`, true, nil, http.StatusBadRequest, "Your question seems to be empty. Please try again."},
		{"non-string query", `{"query":7}`, true, nil, http.StatusBadRequest, "Your question seems to be empty. Please try again."},
		{"not configured", `{"query":"hi"}`, false, nil, http.StatusInternalServerError, ondemand.FriendlyMessage(ondemand.ErrNotConfigured)},
		{"upstream failure", `{"query":"hi"}`, true, errors.New("boom"), http.StatusServiceUnavailable, ondemand.FriendlyMessage(errors.New("boom"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.chat.configured = tt.configured
			env.chat.err = tt.askErr
			if tt.askErr == nil {
				env.chat.answer = "You have two meetings."
			}

			rec := env.post(t, "/chat/ask", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.answer, decodeBody(t, rec)["answer"])
		})
	}
}

func TestAsk_DoesNotNeedRefreshToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.chat.answer = "ok"

	req := httptest.NewRequest(http.MethodPost, "/chat/ask", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.tokens.gotRefresh)
}

func TestPingOnDemand(t *testing.T) {
	env := newTestEnv(t, nil)

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/ping-ondemand-config", nil))
		return rec
	}

	rec := get()
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "sess-1", body["test_session_id"])
	assert.Equal(t, "ext-user", body["external_user_id"])

	env.chat.sessionErr = errors.New("connection refused")
	rec = get()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, decodeBody(t, rec), "test_session_id")

	env.chat.configured = false
	rec = get()
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "MISCONFIGURED", decodeBody(t, rec)["api_key_status"])
}
