package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"suiteagent/internal/auth"
	"suiteagent/internal/google"

	"google.golang.org/api/googleapi"
)

const maxBodyBytes = 1 << 20

// envelope is the JSON object every endpoint answers with.
type envelope map[string]interface{}

// ValidationError reports bad input from the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, body envelope) {
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
// Unknown fields and anything after the first JSON value are rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalid("body", "Request body must be a JSON object: %v", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return invalid("body", "Request body must contain a single JSON object")
	}
	return nil
}

// fail maps err to a status code and writes the error envelope. resource
// names the object the request was about and is used for 404 messages.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, resource string) {
	status, message, details := classify(err, resource)

	logger := s.logger.With("path", r.URL.Path, "status", status, "requestID", requestID(r.Context()))
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Request rejected", "error", err)
	}

	writeJSON(w, status, envelope{"success": false, "error": message, "details": details})
}

func classify(err error, resource string) (int, string, interface{}) {
	var validation *ValidationError
	var tokenErr *auth.TokenError
	var notFound *google.NotFoundError
	var apiErr *googleapi.Error
	var netErr net.Error

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "Input or Configuration Error", validation.Message
	case errors.Is(err, auth.ErrMissingRefreshToken):
		return http.StatusBadRequest, "Input or Configuration Error", "X-Refresh-Token header is required"
	case errors.As(err, &tokenErr):
		if tokenErr.Rejected() {
			return http.StatusUnauthorized, "Refresh token rejected by Google", providerDetails(tokenErr.Body, err)
		}
		return http.StatusBadGateway, "Token endpoint error", providerDetails(tokenErr.Body, err)
	case errors.As(err, &notFound):
		return http.StatusNotFound, fmt.Sprintf("%s not found", resource), err.Error()
	case errors.As(err, &apiErr):
		return googleError(apiErr, resource)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return http.StatusServiceUnavailable, "Upstream service unavailable", "The upstream service did not respond in time. Please try again later."
	default:
		return http.StatusInternalServerError, "An unexpected server error occurred", err.Error()
	}
}

func googleError(apiErr *googleapi.Error, resource string) (int, string, interface{}) {
	details := providerDetails(apiErr.Body, apiErr)
	switch apiErr.Code {
	case http.StatusUnauthorized:
		return apiErr.Code, "Unauthorized by Google", details
	case http.StatusForbidden:
		return apiErr.Code, "Forbidden by Google (check permissions/scopes)", details
	case http.StatusNotFound:
		return apiErr.Code, fmt.Sprintf("%s not found", resource), details
	}

	status := apiErr.Code
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	if apiErr.Message != "" {
		return status, "Google API Error: " + apiErr.Message, details
	}
	return status, "Google API Error", details
}

// providerDetails returns body as JSON when it parses, otherwise the error text.
func providerDetails(body string, err error) interface{} {
	var parsed interface{}
	if body != "" && json.Unmarshal([]byte(body), &parsed) == nil {
		return parsed
	}
	return err.Error()
}
