package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// retryKey marks a request that has already been retried after a refresh
type retryKey struct{}

// Transport is an http.RoundTripper that attaches the current access token
// to every request and transparently recovers from a single expired-token
// failure: on a 401 it refreshes the token pair once and replays the
// original request once. A second 401, a 401 from the refresh endpoint
// itself, or a failed refresh all propagate to the caller; the last of
// these also tears the session down.
type Transport struct {
	// Base is the underlying round tripper; http.DefaultTransport when nil
	Base http.RoundTripper

	// Store holds the token pair read before every request
	Store TokenStore

	// Auth performs the refresh call, bypassing this transport
	Auth AuthAPI

	// ApplicationID is sent as the static Application-Id header
	ApplicationID string

	// OnSessionExpired runs after an unrecoverable auth failure, once the
	// tokens are cleared. Typically it navigates to the login route.
	OnSessionExpired func()

	// Logger defaults to slog.Default
	Logger *slog.Logger

	// refreshMu serializes refreshes so N concurrent 401s produce one
	// refresh call instead of N
	refreshMu sync.Mutex
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	access := t.Store.AccessToken()

	resp, err := t.base().RoundTrip(t.decorate(req, access))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// The refresh endpoint never triggers a nested refresh, and a request
	// already retried once is not retried again.
	if isRefreshRequest(req) || req.Context().Value(retryKey{}) != nil {
		return resp, nil
	}

	refresh := t.Store.RefreshToken()
	if refresh == "" {
		t.teardown()
		return resp, nil
	}

	newAccess, refreshErr := t.refreshTokens(req.Context(), access, refresh)
	if refreshErr != nil {
		drain(resp)
		t.teardown()
		// The refresh failure, not the original 401, reaches the caller
		return nil, fmt.Errorf("token refresh failed: %w", refreshErr)
	}

	retryReq, ok := t.retryable(req, newAccess)
	if !ok {
		// Body cannot be replayed; the original 401 stands
		return resp, nil
	}

	drain(resp)
	t.logger().Debug("retrying request with refreshed token", "path", req.URL.Path)
	return t.base().RoundTrip(retryReq)
}

// refreshTokens obtains a fresh access token, de-duplicating concurrent
// refreshes: whichever 401 wins the lock performs the refresh, and the rest
// reuse the token it stored.
func (t *Transport) refreshTokens(ctx context.Context, usedAccess, refreshToken string) (string, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	// Another request may have refreshed while this one waited on the lock
	if current := t.Store.AccessToken(); current != "" && current != usedAccess {
		return current, nil
	}

	tokens, err := t.Auth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	t.Store.SetAccessToken(tokens.AccessToken)
	t.Store.SetRefreshToken(tokens.RefreshToken)
	return tokens.AccessToken, nil
}

// decorate clones the request and attaches the standard headers
func (t *Transport) decorate(req *http.Request, access string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Accept", "application/json")
	if t.ApplicationID != "" {
		clone.Header.Set("Application-Id", t.ApplicationID)
	}
	if access != "" {
		clone.Header.Set("Authorization", "Bearer "+access)
	}
	return clone
}

// retryable builds the single retry of the original request with the new
// access token, marking it so a second 401 is not retried again. Requests
// whose body cannot be regenerated are not retryable.
func (t *Transport) retryable(req *http.Request, access string) (*http.Request, bool) {
	ctx := context.WithValue(req.Context(), retryKey{}, true)
	retry := t.decorate(req.Clone(ctx), access)

	if req.Body != nil {
		if req.GetBody == nil {
			return nil, false
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		retry.Body = body
	}

	return retry, true
}

// teardown clears both tokens and notifies the session-expired hook
func (t *Transport) teardown() {
	t.Store.RemoveAccessToken()
	t.Store.RemoveRefreshToken()
	t.logger().Debug("session torn down after unrecoverable auth failure")
	if t.OnSessionExpired != nil {
		t.OnSessionExpired()
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// isRefreshRequest reports whether the request targets the refresh endpoint
func isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, refreshPath)
}

// drain discards and closes a response body so the connection can be reused
func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}
