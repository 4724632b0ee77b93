package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAPI imitates the server: login issues tokens, refresh rotates them,
// /api/auth/me accepts only the current access token
type fakeAPI struct {
	*httptest.Server
	t *testing.T

	mu            sync.Mutex
	currentAccess string

	refreshCalls atomic.Int32
	meCalls      atomic.Int32

	// rejectAll makes /api/auth/me return 401 no matter the token
	rejectAll atomic.Bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		api.issueTokens(w, http.StatusOK)
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		api.refreshCalls.Add(1)
		api.issueTokens(w, http.StatusOK)
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		api.meCalls.Add(1)

		api.mu.Lock()
		accepted := !api.rejectAll.Load() && r.Header.Get("Authorization") == "Bearer "+api.currentAccess
		api.mu.Unlock()

		if !accepted {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid or expired token"}`))
			return
		}

		_, _ = w.Write([]byte(`{"success":true,"user":{"email":"nk@example.com","name":"nk"}}`))
	})
	mux.HandleFunc("GET /api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"error":"not yours"}`))
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) issueTokens(w http.ResponseWriter, status int) {
	access := mintToken(a.t, time.Now().Add(time.Minute))
	refresh := mintToken(a.t, time.Now().Add(7*24*time.Hour))

	a.mu.Lock()
	a.currentAccess = access
	a.mu.Unlock()

	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"user":    map[string]string{"email": "nk@example.com", "name": "nk"},
		"tokens":  map[string]string{"accessToken": access, "refreshToken": refresh},
	})
	require.NoError(a.t, err)
}

func newTestClient(t *testing.T, api *fakeAPI, onExpired func(FailReason)) *Client {
	t.Helper()

	c, err := New(Config{BaseURL: api.URL, OnSessionExpired: onExpired})
	require.NoError(t, err)
	c.retryBackoff = func(int) time.Duration { return 0 }
	return c
}

func TestClient(t *testing.T) {
	t.Run("login stores session and requests work", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "StrongEnoughPassword")
		require.NoError(t, err)

		session, ok := c.Session()
		require.True(t, ok)
		require.Equal(t, StateHealthy, session.State)
		require.NotEmpty(t, session.RefreshToken)

		user, err := c.Me(t.Context())
		require.NoError(t, err)
		require.Equal(t, "nk@example.com", user.Email)
		require.Equal(t, int32(0), api.refreshCalls.Load(), "fresh token needs no refresh")
	})

	t.Run("request without login fails", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Me(t.Context())

		require.ErrorIs(t, err, ErrNotAuthenticated)
		require.Equal(t, int32(0), api.meCalls.Load())
	})

	t.Run("expired access token refreshed and request retried once", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		// Server rotates tokens behind the client's back: the cached access
		// token is now rejected even though it looks fresh locally
		api.issueTokens(httptest.NewRecorder(), http.StatusOK)

		user, err := c.Me(t.Context())

		require.NoError(t, err)
		require.Equal(t, "nk@example.com", user.Email)
		require.Equal(t, int32(1), api.refreshCalls.Load())
		require.Equal(t, int32(2), api.meCalls.Load(), "401 then one retry")
	})

	t.Run("concurrent requests share one refresh", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		// Seed an already-expired access token so every request discovers
		// expiry at the same moment
		refresh := mintToken(t, time.Now().Add(7*24*time.Hour))
		c.cache.Set("expired-access", refresh, time.Now().Add(-time.Second))

		const n = 10
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = c.Me(t.Context())
			}()
		}
		wg.Wait()

		for i, err := range errs {
			require.NoErrorf(t, err, "request %d should succeed on the shared token", i)
		}
		require.Equal(t, int32(1), api.refreshCalls.Load(), "exactly one refresh for all concurrent requests")
	})

	t.Run("second 401 after retry is surfaced", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		api.rejectAll.Store(true)
		meCallsBefore := api.meCalls.Load()

		_, err = c.Me(t.Context())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.Status)
		require.Equal(t, int32(2), api.meCalls.Load()-meCallsBefore, "original call plus exactly one retry")
	})

	t.Run("endpoint retry budget is capped", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		api.rejectAll.Store(true)

		var apiErr *APIError
		for range endpointRetryCap {
			_, err = c.Me(t.Context())
			require.ErrorAs(t, err, &apiErr)
		}
		refreshesBefore := api.refreshCalls.Load()
		meCallsBefore := api.meCalls.Load()

		_, err = c.Me(t.Context())

		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.Status)
		require.Equal(t, int32(1), api.meCalls.Load()-meCallsBefore, "no retry once the budget is spent")
		require.Equal(t, refreshesBefore, api.refreshCalls.Load(), "no refresh once the budget is spent")
	})

	t.Run("success resets endpoint retry budget", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		api.rejectAll.Store(true)
		for range endpointRetryCap {
			_, _ = c.Me(t.Context())
		}
		api.rejectAll.Store(false)

		// The budget is exhausted, but the request succeeds first try because
		// refresh already installed the current token
		_, err = c.Me(t.Context())
		require.NoError(t, err)

		api.rejectAll.Store(true)
		_, err = c.Me(t.Context())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr, "budget should be available again after a success")
	})

	t.Run("403 surfaced without refresh", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		err = c.Do(t.Context(), http.MethodGet, "/api/forbidden", nil, nil)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.Status)
		require.Equal(t, "not yours", apiErr.Message)
		require.Equal(t, int32(0), api.refreshCalls.Load(), "403 is not a token problem")
	})

	t.Run("terminal failure clears session and fires hook", func(t *testing.T) {
		api := newFakeAPI(t)

		var hookReason FailReason
		var hookCalls int
		c := newTestClient(t, api, func(reason FailReason) {
			hookReason = reason
			hookCalls++
		})

		// Both tokens are long gone
		c.cache.Set("expired", mintToken(t, time.Now().Add(-time.Hour)), time.Now().Add(-time.Hour))

		_, err := c.Me(t.Context())

		var expiredErr *SessionExpiredError
		require.ErrorAs(t, err, &expiredErr)
		require.Equal(t, ReasonRefreshTokenExpired, expiredErr.Reason)
		require.Equal(t, ReasonRefreshTokenExpired, hookReason)
		require.Equal(t, 1, hookCalls)

		_, ok := c.Session()
		require.False(t, ok, "terminal failure must clear the session")

		// Next request fails fast without network
		meCalls := api.meCalls.Load()
		_, err = c.Me(t.Context())
		require.ErrorIs(t, err, ErrNotAuthenticated)
		require.Equal(t, meCalls, api.meCalls.Load())
	})

	t.Run("invalid credentials surfaced as api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid email or password"}`))
		}))
		t.Cleanup(srv.Close)

		c, err := New(Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = c.Login(t.Context(), "nk@example.com", "wrong")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.Status)
		require.Equal(t, "Invalid email or password", apiErr.Message)

		_, ok := c.Session()
		require.False(t, ok, "failed login must not create a session")
	})

	t.Run("logout drops session", func(t *testing.T) {
		api := newFakeAPI(t)
		c := newTestClient(t, api, nil)

		_, err := c.Login(t.Context(), "nk@example.com", "pwd")
		require.NoError(t, err)

		c.Logout()

		_, err = c.Me(t.Context())
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("base url required", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})
}

func TestClientRegister(t *testing.T) {
	api := newFakeAPI(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "new@example.com", body.Email)
		api.issueTokens(w, http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	user, err := c.Register(t.Context(), "new@example.com", "StrongEnoughPassword", "nk")

	require.NoError(t, err)
	require.Equal(t, "nk@example.com", user.Email)

	session, ok := c.Session()
	require.True(t, ok)
	require.Equal(t, StateHealthy, session.State)
	require.NotEmpty(t, session.AccessToken)
}

func TestClientErrors(t *testing.T) {
	t.Run("session expired error text", func(t *testing.T) {
		err := &SessionExpiredError{Reason: ReasonMaxRetriesExceeded}
		require.Contains(t, err.Error(), "MAX_RETRIES_EXCEEDED")
	})

	t.Run("api error text", func(t *testing.T) {
		err := &APIError{Status: 500, Message: "boom"}
		require.Contains(t, err.Error(), "500")
		require.Contains(t, err.Error(), "boom")
	})

	t.Run("errors.As works through wrapping", func(t *testing.T) {
		wrapped := errors.New("outer")
		var apiErr *APIError
		require.False(t, errors.As(wrapped, &apiErr))
	})
}
