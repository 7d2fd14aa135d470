package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/logging"
	"github.com/dmitrijs2005/protopass/internal/netx"
	"github.com/google/uuid"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 << 20

// HTTPClient talks to the API over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL. timeout
// bounds every single request; zero disables the client-side limit.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	if _, err := netx.JoinURL(baseURL, "", nil); err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    netx.NewHTTPClient(timeout),
		log:     log,
	}, nil
}

func (c *HTTPClient) call(ctx context.Context, method, endpoint string, query url.Values, token string, in, out any) error {
	u, err := netx.JoinURL(c.baseURL, endpoint, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", endpoint, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.SessionScheme+" "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return fmt.Errorf("%s: %w: %w", endpoint, common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s: read response: %w: %w", endpoint, common.ErrNetwork, err)
	}

	c.log.Debug(ctx, "request",
		"method", method,
		"endpoint", endpoint,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(endpoint, resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", endpoint, common.ErrNetwork, err)
	}
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email,omitempty"`
	Salt     string `json:"salt"`
	Verifier string `json:"verifier"`
}

func (c *HTTPClient) Register(ctx context.Context, email, salt, verifier string) error {
	req := credentialsRequest{Email: email, Salt: salt, Verifier: verifier}
	return c.call(ctx, http.MethodPost, "register", nil, "", req, nil)
}

func (c *HTTPClient) Challenge(ctx context.Context, email, clientChallenge string) (*ChallengeResponse, error) {
	req := struct {
		Email           string `json:"email"`
		ClientChallenge string `json:"clientChallenge"`
	}{email, clientChallenge}

	var resp ChallengeResponse
	if err := c.call(ctx, http.MethodPost, "challenge", nil, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Authenticate(ctx context.Context, email, clientProof string) (*AuthenticateResponse, error) {
	req := struct {
		Email       string `json:"email"`
		ClientProof string `json:"clientProof"`
	}{email, clientProof}

	var resp AuthenticateResponse
	if err := c.call(ctx, http.MethodPost, "authenticate", nil, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodGet, "logout", nil, token, nil, nil)
}

func (c *HTTPClient) DownloadUserProfile(ctx context.Context, token string) (*UserProfile, error) {
	var resp UserProfile
	if err := c.call(ctx, http.MethodGet, "downloadUserProfile", nil, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UploadUserProfile(ctx context.Context, token string, profile *UserProfile) error {
	return c.call(ctx, http.MethodPut, "uploadUserProfile", nil, token, profile, nil)
}

func (c *HTTPClient) GetStorageKey(ctx context.Context, token string, forceFresh bool) (string, error) {
	q := url.Values{"forceFresh": {strconv.FormatBool(forceFresh)}}

	var resp struct {
		ContainerPasswordStorageKey string `json:"containerPasswordStorageKey"`
	}
	if err := c.call(ctx, http.MethodGet, "getStorageKey", q, token, nil, &resp); err != nil {
		return "", err
	}
	if resp.ContainerPasswordStorageKey == "" {
		return "", fmt.Errorf("getStorageKey: empty storage key: %w", common.ErrServer)
	}
	return resp.ContainerPasswordStorageKey, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, token, salt, verifier string) error {
	req := credentialsRequest{Salt: salt, Verifier: verifier}
	return c.call(ctx, http.MethodPost, "changePassword", nil, token, req, nil)
}

func (c *HTTPClient) ResetPasswordRequest(ctx context.Context, email string) error {
	q := url.Values{"email": {email}}
	return c.call(ctx, http.MethodGet, "resetPasswordRequest", q, "", nil, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, id, email, salt, verifier string) error {
	q := url.Values{"id": {id}}
	if email != "" {
		q.Set("email", email)
	}
	req := credentialsRequest{Salt: salt, Verifier: verifier}
	return c.call(ctx, http.MethodPost, "resetPassword", q, "", req, nil)
}

func (c *HTTPClient) Validate(ctx context.Context, email, id string) error {
	q := url.Values{"email": {email}, "id": {id}}
	return c.call(ctx, http.MethodGet, "validate", q, "", nil, nil)
}
