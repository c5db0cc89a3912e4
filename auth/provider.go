package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the provider rejects an email/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderNotConfigured is returned when no provider URL or API key is set
	ErrProviderNotConfigured = errors.New("auth provider not configured")
)

// ProviderError carries a 4xx rejection from the auth provider (duplicate
// email, weak password and similar). Msg is safe to show to the user.
type ProviderError struct {
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider rejected request (status %d): %s", e.Status, e.Msg)
}

// Session is the token bundle returned by a successful sign-in
type Session struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         ProviderUser `json:"user"`
}

// ProviderUser is the provider's view of an account
type ProviderUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// SignUpRequest is forwarded to the provider's signup endpoint
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// ProviderClient talks to a GoTrue-compatible auth REST API. Password storage
// and rotation live entirely on the provider side.
type ProviderClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewProviderClient creates a client for the provider at baseURL
func NewProviderClient(baseURL, apiKey string, timeout time.Duration) *ProviderClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ProviderClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SignIn exchanges an email and password for a session
func (c *ProviderClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var session Session
	status, err := c.post(ctx, "/auth/v1/token?grant_type=password", payload, &session)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("no access_token in response")
	}
	return &session, nil
}

// SignUp registers a new account; the name and phone travel as user metadata
func (c *ProviderClient) SignUp(ctx context.Context, req SignUpRequest) (*ProviderUser, error) {
	payload := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
		"data": map[string]string{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"phone":      req.Phone,
		},
	}

	// The provider answers with either a bare user or a session wrapping one,
	// depending on whether email confirmation is enabled.
	var resp struct {
		ProviderUser
		User *ProviderUser `json:"user"`
	}
	if _, err := c.post(ctx, "/auth/v1/signup", payload, &resp); err != nil {
		return nil, err
	}

	user := resp.ProviderUser
	if resp.User != nil {
		user = *resp.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("no user in signup response")
	}
	return &user, nil
}

func (c *ProviderClient) post(ctx context.Context, path string, payload, out interface{}) (int, error) {
	if c == nil || c.baseURL == "" || c.apiKey == "" {
		return 0, ErrProviderNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return resp.StatusCode, &ProviderError{Status: resp.StatusCode, Msg: providerMessage(respBody)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, fmt.Errorf("provider error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("parse provider response: %w", err)
	}
	return resp.StatusCode, nil
}

// providerMessage pulls the human readable message out of the provider's
// error body, whose field name varies between endpoints.
func providerMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return "request rejected"
	}
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return "request rejected"
}
