package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/config"
	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/observability"
)

// Backend endpoints consumed by the portal.
const (
	PathLogin           = "/api/auth/login"
	PathLogout          = "/api/auth/logout"
	PathValidateToken   = "/api/auth/validate-token"
	PathChangePassword  = "/api/auth/change-password"
	PathRegisterProfile = "/api/home/admin/register-info"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the backend status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

// MessageOf returns the backend's error/message text, or fallback when it sent none.
func MessageOf(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && strings.TrimSpace(be.Message) != "" {
		return be.Message
	}
	return fallback
}

// LoginResponse is the session seed returned by a successful login.
type LoginResponse struct {
	Token               string      `json:"token"`
	Role                domain.Role `json:"role"`
	HasProfile          bool        `json:"hasProfile"`
	IsTemporaryPassword bool        `json:"isTemporaryPassword"`
}

// Validation carries whatever onboarding flags the validate-token endpoint chose to echo.
type Validation struct {
	Role                *domain.Role `json:"role,omitempty"`
	HasProfile          *bool        `json:"hasProfile,omitempty"`
	IsTemporaryPassword *bool        `json:"isTemporaryPassword,omitempty"`
}

// Patch converts echoed flags into a session patch.
func (v *Validation) Patch() domain.SessionPatch {
	if v == nil {
		return domain.SessionPatch{}
	}
	patch := domain.SessionPatch{HasProfile: v.HasProfile, IsTemporaryPassword: v.IsTemporaryPassword}
	if v.Role != nil && *v.Role != "" {
		patch.Role = v.Role
	}
	return patch
}

// ChangePasswordResponse may carry a rotated token.
type ChangePasswordResponse struct {
	Token string `json:"token,omitempty"`
}

// Client talks JSON over HTTP to the REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient builds a backend client.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
		metrics: metrics,
	}
}

// Login authenticates a user. It is the only call made without a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, PathLogin, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	return &resp, nil
}

// ValidateToken asks the backend whether token is still good. Any non-2xx is an error.
func (c *Client) ValidateToken(ctx context.Context, token string) (*Validation, error) {
	raw, err := c.raw(ctx, http.MethodGet, PathValidateToken, token, nil)
	if err != nil {
		return nil, err
	}
	var v Validation
	// The body is free-form; only recognised flags are picked up.
	if len(bytes.TrimSpace(raw)) > 0 {
		if jsonErr := json.Unmarshal(raw, &v); jsonErr != nil {
			return &Validation{}, nil
		}
	}
	return &v, nil
}

// ChangePassword replaces the caller's password.
func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (*ChangePasswordResponse, error) {
	var resp ChangePasswordResponse
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, PathChangePassword, token, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterProfile submits the one-time profile registration.
func (c *Client) RegisterProfile(ctx context.Context, token string, profile domain.Profile) error {
	return c.do(ctx, http.MethodPost, PathRegisterProfile, token, profile, nil)
}

// Logout tells the backend the token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, PathLogout, token, nil, nil)
}

// Get fetches JSON from an authenticated endpoint. An empty body yields nil.
func (c *Client) Get(ctx context.Context, token, path string) (json.RawMessage, error) {
	return jsonBody(path)(c.raw(ctx, http.MethodGet, path, token, nil))
}

// Post sends body to an authenticated endpoint and returns its JSON answer, if any.
func (c *Client) Post(ctx context.Context, token, path string, body any) (json.RawMessage, error) {
	return jsonBody(path)(c.raw(ctx, http.MethodPost, path, token, body))
}

// jsonBody rejects 2xx answers that are not JSON, so they are never relayed to the browser.
func jsonBody(path string) func(json.RawMessage, error) (json.RawMessage, error) {
	return func(data json.RawMessage, err error) (json.RawMessage, error) {
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		if !json.Valid(data) {
			return nil, &Error{Status: http.StatusBadGateway, Message: path + " returned a non-JSON body"}
		}
		return data, nil
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	raw, err := c.raw(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(path, 0)
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendCall(path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return data, nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."}; nested {"error":{"message":...}} is accepted too.
func errorMessage(data []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if len(body.Error) > 0 {
		var text string
		if err := json.Unmarshal(body.Error, &text); err == nil && text != "" {
			return text
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return body.Message
}
