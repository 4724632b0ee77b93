package client

import (
	"sync"
	"time"
)

// RefreshState of the cached session
type RefreshState string

const (
	StateHealthy    RefreshState = "HEALTHY"
	StateRefreshing RefreshState = "REFRESHING"
	StateFailed     RefreshState = "FAILED"
)

// Session is a point-in-time snapshot of the cached tokens and refresh state
type Session struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time

	State         RefreshState
	Reason        FailReason
	Attempts      int
	LastAttemptAt time.Time
}

// SessionCache is the single source of truth for what token the next outgoing
// request should use. Many requests read and mutate it concurrently, so every
// transition happens under the mutex, and the Refreshing state doubles as a
// mutual-exclusion flag: the first caller to observe expiry becomes the leader
// and performs the network call, everyone else waits on the same outcome.
type SessionCache struct {
	mu      sync.Mutex
	session Session
	active  bool
	done    chan struct{} // non-nil only while a refresh is in flight
}

func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

// Get returns a snapshot of the session, false if no session exists
func (c *SessionCache) Get() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.active
}

// Set stores a fresh token pair after login or a successful refresh.
// Resets the failure state: attempts back to zero, reason cleared.
func (c *SessionCache) Set(accessToken string, refreshToken string, accessExpiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = Session{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiresAt,
		State:           StateHealthy,
	}
	c.active = true
}

// Clear drops the session on logout or terminal failure
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = Session{}
	c.active = false
}

// BeginRefresh atomically transitions the session into Refreshing.
// The returned channel closes when the in-flight refresh finishes. Leader is
// true only for the caller that won the transition and must perform the
// refresh: everyone else has to wait on the channel and re-read the cache.
func (c *SessionCache) BeginRefresh() (done <-chan struct{}, leader bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State == StateRefreshing {
		return c.done, false
	}

	c.session.State = StateRefreshing
	c.done = make(chan struct{})
	return c.done, true
}

// CompleteRefresh stores the refreshed pair and releases the waiters.
// An empty refreshToken keeps the previous one: rotation is the server's call.
func (c *SessionCache) CompleteRefresh(accessToken string, refreshToken string, accessExpiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if refreshToken == "" {
		refreshToken = c.session.RefreshToken
	}

	c.session = Session{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiresAt,
		State:           StateHealthy,
	}
	c.releaseLocked()
}

// FailRefresh records a failed attempt and releases the waiters
func (c *SessionCache) FailRefresh(reason FailReason, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.State = StateFailed
	c.session.Reason = reason
	c.session.Attempts++
	c.session.LastAttemptAt = at
	c.releaseLocked()
}

// AbortRefresh backs out of the Refreshing state without recording an attempt.
// Used when the leader decides to skip the network call (cooldown window).
func (c *SessionCache) AbortRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Attempts > 0 {
		c.session.State = StateFailed
	} else {
		c.session.State = StateHealthy
	}
	c.releaseLocked()
}

func (c *SessionCache) releaseLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}
