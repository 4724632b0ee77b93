package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	defaultRequestTimeout = 15 * time.Second

	// Cap on 401-triggered retries per endpoint. Tracked separately from the
	// refresher's attempt budget so one broken endpoint does not starve others.
	endpointRetryCap = 3
)

type Config struct {
	// BaseURL of the API server, without the /api prefix
	BaseURL string

	// RequestTimeout bounds every domain request, zero means 15s
	RequestTimeout time.Duration

	// RefreshTimeout bounds the refresh call, zero means 5s
	RefreshTimeout time.Duration

	// OnSessionExpired is called once when the session fails terminally and
	// gets cleared. The UI layer uses it to force re-authentication.
	OnSessionExpired func(reason FailReason)
}

// Client wraps the finance tracker API: it attaches the current access token
// to every request and transparently recovers from token expiry. A request
// that gets a 401 triggers one shared refresh and is retried exactly once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *SessionCache
	refresher  *refresher

	onSessionExpired func(reason FailReason)

	// retryBackoff is the pause before retrying a request after a transient
	// refresh failure, overridable in tests
	retryBackoff func(attempt int) time.Duration

	mu              sync.Mutex
	endpointRetries map[string]int
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base url is required")
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	cache := NewSessionCache()
	rf := newRefresher(cfg.BaseURL, cache)
	if cfg.RefreshTimeout != 0 {
		rf.httpClient.Timeout = cfg.RefreshTimeout
	}

	return &Client{
		baseURL:          cfg.BaseURL,
		httpClient:       &http.Client{Timeout: cfg.RequestTimeout},
		cache:            cache,
		refresher:        rf,
		onSessionExpired: cfg.OnSessionExpired,
		retryBackoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		endpointRetries: map[string]int{},
	}, nil
}

// Session returns a snapshot of the cached session, false when logged out
func (c *Client) Session() (Session, bool) {
	return c.cache.Get()
}

// Login authenticates with credentials and stores the issued token pair
func (c *Client) Login(ctx context.Context, email string, password string) (User, error) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return c.authenticate(ctx, "/api/auth/login", request{Email: email, Password: password})
}

// Register creates an account, the server logs the new user straight in
func (c *Client) Register(ctx context.Context, email string, password string, name string) (User, error) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name,omitempty"`
	}
	return c.authenticate(ctx, "/api/auth/register", request{Email: email, Password: password, Name: name})
}

// Logout drops the session, any following request fails with ErrNotAuthenticated
func (c *Client) Logout() {
	c.cache.Clear()

	c.mu.Lock()
	c.endpointRetries = map[string]int{}
	c.mu.Unlock()
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (User, error) {
	type response struct {
		Success bool      `json:"success"`
		Error   string    `json:"error"`
		User    User      `json:"user"`
		Tokens  TokenPair `json:"tokens"`
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return User{}, fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return User{}, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("call auth endpoint: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < http.StatusBadRequest {
		return User{}, fmt.Errorf("decode auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return User{}, &APIError{Status: resp.StatusCode, Message: parsed.Error}
	}

	expiresAt := decodeExpiry(parsed.Tokens.AccessToken)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(fallbackAccessTokenTTL)
	}
	c.cache.Set(parsed.Tokens.AccessToken, parsed.Tokens.RefreshToken, expiresAt)

	return parsed.User, nil
}

// Do sends an authenticated request and decodes the response body into out.
// On 401 it refreshes through the shared orchestrator and retries the request
// exactly once, a second 401 is surfaced as an APIError. Terminal refresh
// failures clear the session and come back as SessionExpiredError.
func (c *Client) Do(ctx context.Context, method string, path string, payload any, out any) error {
	token, err := c.refresher.Token(ctx)
	if err != nil {
		return c.classify(err)
	}

	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	status, err := c.send(ctx, method, path, body, token, out)
	if err != nil {
		return err
	}
	endpoint := method + " " + path

	if status == http.StatusUnauthorized {
		if !c.allowRetry(endpoint) {
			return &APIError{Status: http.StatusUnauthorized, Message: "retry limit reached"}
		}

		token, err = c.refresher.ForceRefresh(ctx)
		if err != nil {
			return c.classify(err)
		}
		if err := c.waitBackoff(ctx); err != nil {
			return err
		}

		if status, err = c.send(ctx, method, path, body, token, out); err != nil {
			return err
		}
	}

	if status == http.StatusUnauthorized {
		return &APIError{Status: http.StatusUnauthorized, Message: "unauthorized after token refresh"}
	}

	c.resetRetries(endpoint)
	return nil
}

// send performs one HTTP exchange. A 401 is reported through the status so
// the caller can coordinate the retry, every other non-2xx becomes an APIError.
func (c *Client) send(ctx context.Context, method string, path string, body []byte, token string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var parsed struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&parsed)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: parsed.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// classify turns refresher errors into the caller-facing contract: terminal
// failures clear the session, only the client makes that call
func (c *Client) classify(err error) error {
	var expiredErr *SessionExpiredError
	if errors.As(err, &expiredErr) {
		c.cache.Clear()
		if c.onSessionExpired != nil {
			c.onSessionExpired(expiredErr.Reason)
		}
	}
	return err
}

// waitBackoff pauses before the retry when the last refresh failed
// transiently, 1s per recorded attempt
func (c *Client) waitBackoff(ctx context.Context) error {
	session, ok := c.cache.Get()
	if !ok || session.Reason != ReasonRefreshFailed || session.Attempts == 0 {
		return nil
	}

	timer := time.NewTimer(c.retryBackoff(session.Attempts))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) allowRetry(endpoint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpointRetries[endpoint] >= endpointRetryCap {
		return false
	}
	c.endpointRetries[endpoint]++
	return true
}

func (c *Client) resetRetries(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.endpointRetries, endpoint)
}
