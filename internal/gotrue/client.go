package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"session-gateway/internal/session"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config describes how to reach the project's auth server.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the GoTrue token endpoint. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("gotrue: project URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gotrue: api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		}
	}
	return &Client{baseURL: base, apiKey: cfg.APIKey, timeout: timeout, http: hc}, nil
}

type user struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         user   `json:"user"`
}

func (r tokenResponse) providerSession() session.ProviderSession {
	return session.ProviderSession{
		Identity:          r.User.ID,
		Email:             strings.ToLower(r.User.Email),
		RefreshCredential: r.RefreshToken,
		TTL:               time.Duration(r.ExpiresIn) * time.Second,
		CreatedAt:         r.User.CreatedAt,
	}
}

// ExchangeRefreshCredential implements session.CredentialExchanger.
func (c *Client) ExchangeRefreshCredential(ctx context.Context, refreshToken string) (session.ProviderSession, error) {
	if refreshToken == "" {
		return session.ProviderSession{}, fmt.Errorf("%w: empty refresh token", ErrInvalidGrant)
	}
	resp, err := c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return session.ProviderSession{}, err
	}
	return resp.providerSession(), nil
}

// SignInWithPassword runs the password grant. Password checking happens on the auth server.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (session.ProviderSession, error) {
	resp, err := c.token(ctx, "password", map[string]string{"email": email, "password": password})
	if err != nil {
		return session.ProviderSession{}, err
	}
	return resp.providerSession(), nil
}

func (c *Client) token(ctx context.Context, grantType string, body map[string]string) (tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return tokenResponse{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/auth/v1/token?grant_type=" + grantType
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode/100 != 2 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return tokenResponse{}, eb.apiError(resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return tokenResponse{}, fmt.Errorf("gotrue: decode token response: %w", err)
	}
	if tr.RefreshToken == "" || tr.User.ID == "" {
		return tokenResponse{}, errors.New("gotrue: token response missing refresh_token or user")
	}
	return tr, nil
}
