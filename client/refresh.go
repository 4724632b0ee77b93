package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultMaxRefreshRetries = 5
	defaultRefreshCooldown   = 10 * time.Second
	defaultRefreshTimeout    = 5 * time.Second

	// Used when the server issues an access token whose exp claim can not be
	// decoded locally. A guess, deliberately short.
	fallbackAccessTokenTTL = time.Minute
)

// refresher decides, on access token expiry, whether to call the refresh
// endpoint at all: terminal states and locally-expired refresh tokens never
// hit the network, repeated failures are throttled by a cooldown, and
// concurrent callers share a single in-flight attempt through the cache.
type refresher struct {
	baseURL    string
	httpClient *http.Client
	cache      *SessionCache

	maxRetries int
	cooldown   time.Duration
	now        func() time.Time
}

func newRefresher(baseURL string, cache *SessionCache) *refresher {
	return &refresher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultRefreshTimeout},
		cache:      cache,
		maxRetries: defaultMaxRefreshRetries,
		cooldown:   defaultRefreshCooldown,
		now:        time.Now,
	}
}

// Token returns an access token for the next outgoing request, refreshing
// first when the cached one is expired
func (r *refresher) Token(ctx context.Context) (string, error) {
	return r.ensure(ctx, false)
}

// ForceRefresh ignores the locally-estimated expiry and refreshes anyway.
// Used after a server-side 401: the server's verdict wins over local clocks.
func (r *refresher) ForceRefresh(ctx context.Context) (string, error) {
	return r.ensure(ctx, true)
}

func (r *refresher) ensure(ctx context.Context, force bool) (string, error) {
	for {
		session, ok := r.cache.Get()
		if !ok {
			return "", ErrNotAuthenticated
		}
		if session.Reason.Terminal() {
			return "", &SessionExpiredError{Reason: session.Reason}
		}

		if session.State != StateRefreshing {
			if !force && !expired(session.AccessExpiresAt, r.now()) {
				return session.AccessToken, nil
			}
			// After a failure refreshing is throttled: inside the cooldown
			// window callers get the stale token instead of another attempt
			if session.Attempts > 0 && r.now().Sub(session.LastAttemptAt) < r.cooldown {
				return session.AccessToken, nil
			}
		}

		done, leader := r.cache.BeginRefresh()
		if leader {
			return r.refresh(ctx, force)
		}

		// Somebody else is already refreshing: await the shared outcome
		select {
		case <-done:
			force = false
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// refresh runs the one in-flight attempt. The caller holds the Refreshing
// state, so every exit path has to release it through the cache.
func (r *refresher) refresh(ctx context.Context, force bool) (string, error) {
	session, _ := r.cache.Get()
	now := r.now()

	// The expiry that led here was observed before leadership was won.
	// Another leader may have completed a refresh in between, so re-check
	// against the snapshot taken under the Refreshing state.
	if !force && !expired(session.AccessExpiresAt, now) {
		r.cache.AbortRefresh()
		return session.AccessToken, nil
	}

	switch {
	case session.RefreshToken == "":
		r.cache.FailRefresh(ReasonNoRefreshToken, now)
		return "", &SessionExpiredError{Reason: ReasonNoRefreshToken}

	case expired(decodeExpiry(session.RefreshToken), now):
		// Provable locally, not worth a network call
		r.cache.FailRefresh(ReasonRefreshTokenExpired, now)
		return "", &SessionExpiredError{Reason: ReasonRefreshTokenExpired}

	case session.Attempts >= r.maxRetries:
		r.cache.FailRefresh(ReasonMaxRetriesExceeded, now)
		return "", &SessionExpiredError{Reason: ReasonMaxRetriesExceeded}
	}

	if session.Attempts > 0 && now.Sub(session.LastAttemptAt) < r.cooldown {
		r.cache.AbortRefresh()
		return session.AccessToken, nil
	}

	pair, err := r.callRefreshEndpoint(ctx, session.RefreshToken)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// The server rejected the refresh token itself, retrying is pointless
			r.cache.FailRefresh(ReasonRefreshTokenExpired, r.now())
			return "", &SessionExpiredError{Reason: ReasonRefreshTokenExpired}
		}

		// Network error, timeout or 5xx: transient, eligible again after cooldown
		r.cache.FailRefresh(ReasonRefreshFailed, r.now())
		return session.AccessToken, nil
	}

	expiresAt := decodeExpiry(pair.AccessToken)
	if expiresAt.IsZero() {
		expiresAt = r.now().Add(fallbackAccessTokenTTL)
	}
	r.cache.CompleteRefresh(pair.AccessToken, pair.RefreshToken, expiresAt)

	return pair.AccessToken, nil
}

func (r *refresher) callRefreshEndpoint(ctx context.Context, refreshToken string) (TokenPair, error) {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}
	type response struct {
		Success bool      `json:"success"`
		Error   string    `json:"error"`
		Tokens  TokenPair `json:"tokens"`
	}

	body, err := json.Marshal(request{RefreshToken: refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return TokenPair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("call refresh endpoint: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode == http.StatusOK {
		return TokenPair{}, fmt.Errorf("decode refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, &APIError{Status: resp.StatusCode, Message: parsed.Error}
	}
	if parsed.Tokens.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("refresh response has no access token")
	}

	return parsed.Tokens, nil
}
