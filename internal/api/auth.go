// internal/api/auth.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ajaypalvai07/ai-help-center/internal/config"
)

// Login exchanges credentials for a token and identity.
//
// The token endpoint takes form-encoded credentials with a "username" field
// (the backend's password-grant convention) even though the value is an
// email address. A 401 means the credentials were rejected; any other
// failure is a server or transport problem, and the two must stay
// distinguishable for the caller's messaging.
func (c *Client) Login(ctx context.Context, email string, password config.Secret) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password.Value())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var body errorBody
		detail := ""
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err == nil {
			detail = body.Detail
		}
		return nil, &Error{Status: resp.StatusCode, Detail: detail}
	}

	var out TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %v", ErrInvalidResponse, err)
	}
	if out.AccessToken == "" || out.User.ID == "" {
		return nil, fmt.Errorf("%w: login response missing token or user", ErrInvalidResponse)
	}
	return &out, nil
}

// Verify re-validates the stored token and returns the identity it belongs
// to. Called on app start.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	var out VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, "", &out); err != nil {
		return nil, err
	}
	if out.User.ID == "" {
		return nil, fmt.Errorf("%w: verify response missing user", ErrInvalidResponse)
	}
	return &out.User, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var out User
	if err := c.postJSON(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
