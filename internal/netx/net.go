// Package netx builds the HTTP plumbing used by the API client.
package netx

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// NewHTTPClient returns a client with its own pooled transport and the given
// overall request timeout. A zero timeout means no client-side limit.
func NewHTTPClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = timeout
	return c
}

// JoinURL appends endpoint to base and encodes query. Empty query values
// are kept so that the server sees every declared parameter.
func JoinURL(base, endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
