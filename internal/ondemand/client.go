// Package ondemand talks to the On-Demand conversational AI API.
package ondemand

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"suiteagent/internal/config"
	"time"
)

const (
	SessionTimeout = 10 * time.Second
	QueryTimeout   = 60 * time.Second

	maxLoggedBody = 500
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("on-demand api key is not configured")

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("on-demand %s failed with status %d", e.Op, e.StatusCode)
}

// DecodeError is returned when a response body is not the JSON we expect.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode on-demand %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SessionError wraps any failure to open a chat session.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("failed to create chat session: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Client opens chat sessions and submits synchronous queries.
type Client struct {
	logger     *slog.Logger
	cfg        config.OnDemandConfig
	httpClient *http.Client

	sessionTimeout time.Duration
	queryTimeout   time.Duration
}

// NewClient creates a Client from cfg.
func NewClient(logger *slog.Logger, cfg config.OnDemandConfig) *Client {
	return &Client{
		logger:         logger.With("service", "ondemand"),
		cfg:            cfg,
		httpClient:     &http.Client{},
		sessionTimeout: SessionTimeout,
		queryTimeout:   QueryTimeout,
	}
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// ExternalUserID is the user id sessions are opened for.
func (c *Client) ExternalUserID() string {
	return c.cfg.ExternalUserID
}

type sessionRequest struct {
	AgentIDs       []string `json:"agentIds"`
	ExternalUserID string   `json:"externalUserId"`
}

type modelConfigs struct {
	FulfillmentPrompt string   `json:"fulfillmentPrompt"`
	StopSequences     []string `json:"stopSequences"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"topP"`
	MaxTokens         int      `json:"maxTokens"`
	PresencePenalty   float64  `json:"presencePenalty"`
	FrequencyPenalty  float64  `json:"frequencyPenalty"`
}

type queryRequest struct {
	EndpointID    string       `json:"endpointId"`
	Query         string       `json:"query"`
	AgentIDs      []string     `json:"agentIds"`
	ResponseMode  string       `json:"responseMode"`
	ReasoningMode string       `json:"reasoningMode"`
	ModelConfigs  modelConfigs `json:"modelConfigs"`
}

// CreateSession opens a new chat session and returns its id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.sessionTimeout)
	defer cancel()

	body := sessionRequest{AgentIDs: []string{}, ExternalUserID: c.cfg.ExternalUserID}
	raw, err := c.post(ctx, "session", c.cfg.BaseURL+"/sessions", body, http.StatusCreated)
	if err != nil {
		return "", err
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &DecodeError{Op: "session", Err: err}
	}
	if resp.Data.ID == "" {
		return "", &DecodeError{Op: "session", Err: errors.New("data.id missing")}
	}

	c.logger.Info("Chat session created", "sessionID", resp.Data.ID)
	return resp.Data.ID, nil
}

// Query submits query in sync mode and returns the extracted answer.
func (c *Client) Query(ctx context.Context, sessionID, query string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	agentIDs := c.cfg.AgentIDs
	if agentIDs == nil {
		agentIDs = []string{}
	}
	body := queryRequest{
		EndpointID:    c.cfg.EndpointID,
		Query:         query,
		AgentIDs:      agentIDs,
		ResponseMode:  "sync",
		ReasoningMode: "low",
		ModelConfigs: modelConfigs{
			StopSequences: []string{},
			Temperature:   0.7,
			TopP:          1,
		},
	}
	raw, err := c.post(ctx, "query", fmt.Sprintf("%s/sessions/%s/query", c.cfg.BaseURL, sessionID), body, http.StatusOK)
	if err != nil {
		return "", err
	}

	answer, err := ExtractAnswer(raw)
	if err != nil {
		return "", &DecodeError{Op: "query", Err: err}
	}
	return answer, nil
}

// Ask opens a fresh session and submits query in it. Session failures are
// returned as *SessionError.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	sessionID, err := c.CreateSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return "", err
		}
		return "", &SessionError{Err: err}
	}
	return c.Query(ctx, sessionID, query)
}

func (c *Client) post(ctx context.Context, op, url string, body interface{}, want int) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Calling on-demand API", "op", op, "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("on-demand %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read on-demand %s response: %w", op, err)
	}
	if resp.StatusCode != want {
		c.logger.Error("On-demand API returned an error", "op", op, "status", resp.StatusCode, "body", truncate(string(raw), maxLoggedBody))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// ExtractAnswer pulls the answer text out of a query response. It looks in
// data.queryResult.fulfillment, then data, then the top level, preferring
// "answer" over "text" at each level. When nothing is found the raw JSON is
// returned as the answer.
func ExtractAnswer(raw []byte) (string, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}

	top, _ := decoded.(map[string]interface{})
	data, _ := top["data"].(map[string]interface{})
	result, _ := data["queryResult"].(map[string]interface{})
	fulfillment, _ := result["fulfillment"].(map[string]interface{})

	for _, level := range []map[string]interface{}{fulfillment, data, top} {
		for _, key := range []string{"answer", "text"} {
			if answer, ok := stringValue(level[key]); ok {
				return answer, nil
			}
		}
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, raw); err != nil {
		return string(raw), nil
	}
	return compact.String(), nil
}

// stringValue reports a present, non-empty value as a string.
func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		return "true", val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), val != 0
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// FriendlyMessage turns an Ask or Query failure into a sentence suitable for
// reading back to the user.
func FriendlyMessage(err error) string {
	var sessionErr *SessionError
	var statusErr *StatusError
	var decodeErr *DecodeError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "Sorry, the chat service is not configured correctly on my end."
	case errors.As(err, &sessionErr):
		return "Sorry, I couldn't start a new chat session right now. Please try again later."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("Error from chat service: Status %d. Please check server logs for details.", statusErr.StatusCode)
	case errors.As(err, &decodeErr):
		return "Sorry, I received an unexpected response from the chat service."
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "Sorry, the chat service took too long to respond."
	case errors.As(err, &netErr):
		return "Sorry, I couldn't connect to the chat service."
	default:
		return "Sorry, an unexpected error occurred while I was trying to get an answer."
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
