package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/protopass/internal/common"
)

// APIError is a non-2xx response from an endpoint. It unwraps to the
// common sentinel the code classifies to.
type APIError struct {
	Endpoint string
	Status   int
	Code     string
	err      error
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	return e.err
}

type errorBody struct {
	Error string `json:"error"`
}

// phrases that identify an auth rejection in a body that is not our JSON,
// e.g. one produced by a gateway in front of the API.
var sessionRejectPhrases = []string{
	"invalid session",
	"session expired",
	"unauthorized",
	"not authenticated",
}

// mapError classifies a non-2xx response.
func mapError(endpoint string, status int, body []byte) error {
	apiErr := &APIError{Endpoint: endpoint, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		apiErr.Code = eb.Error
		apiErr.err = common.ErrorForCode(eb.Error)
		return apiErr
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		text := strings.ToLower(string(body))
		for _, p := range sessionRejectPhrases {
			if strings.Contains(text, p) {
				apiErr.err = common.ErrInvalidSession
				return apiErr
			}
		}
	}

	apiErr.err = common.ErrNetwork
	return apiErr
}

// IsAPIError reports whether err carries a server response and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
