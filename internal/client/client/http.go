package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// HTTPClient talks to the backend's REST API under a base URL such as
// http://localhost:8081/api/auth.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient validates baseURL and returns a client whose requests time
// out after timeout (no limit when timeout is zero).
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *HTTPClient) ValidateToken(ctx context.Context, token string) error {
	return c.do(ctx, "validate-token", http.MethodGet, "/validate-token", token, nil, nil)
}

func (c *HTTPClient) SignIn(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, "signin", http.MethodPost, "/signin", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) SignUp(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, "signup", http.MethodPost, "/signup", "", req, nil)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, req models.PasswordResetRequest) error {
	return c.do(ctx, "forgot-password", http.MethodPost, "/forgot-password", "", req, nil)
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error {
	return c.do(ctx, "verify-email", http.MethodPost, "/verify-email", "", req, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, req models.PasswordReset) error {
	return c.do(ctx, "reset-password", http.MethodPost, "/reset-password", "", req, nil)
}

// do sends one JSON request. A non-nil out is decoded from a 2xx body.
func (c *HTTPClient) do(ctx context.Context, op, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapError(ctx, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return mapError(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, ErrUnavailable, err)
	}
	return nil
}

// errorMessage extracts APIError.Message from a failure body, or "" when
// the body is not such a payload.
func errorMessage(raw []byte) string {
	var apiErr models.APIError
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return ""
	}
	return strings.TrimSpace(apiErr.Message)
}

// mapError folds transport failures, including an expired caller deadline,
// into ErrUnavailable. Cancellation by the caller is passed through so it can
// be told apart from an outage.
func mapError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, context.Canceled)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
