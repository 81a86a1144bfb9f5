package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// NotFoundError reports a lookup that failed locally, e.g. an unknown sheet name.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// StatusCode returns the HTTP status of a Google API error.
func StatusCode(err error) (int, bool) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

// IsNotFoundOrGone reports whether err is a 404 or 410 from the API.
func IsNotFoundOrGone(err error) bool {
	code, ok := StatusCode(err)
	return ok && (code == http.StatusNotFound || code == http.StatusGone)
}

func isUnparseableRange(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(apiErr.Message, "Unable to parse range") || strings.Contains(apiErr.Body, "Unable to parse range")
}
