package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAuthAPI counts refresh calls and hands out sequential token pairs
type countingAuthAPI struct {
	mu       sync.Mutex
	calls    int
	tokens   *TokenPair
	err      error
	lastUsed string
}

func (f *countingAuthAPI) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	return nil, &APIError{StatusCode: 404, Message: "not under test"}
}

func (f *countingAuthAPI) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUsed = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *countingAuthAPI) refreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// acceptToken builds a handler that 200s requests bearing the given token
// and 401s everything else
func acceptToken(token string, hits *int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		if r.Header.Get("Authorization") == "Bearer "+token {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"ok":true},"code":200}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid or expired token","code":401}`))
	}
}

func newTestTransport(store TokenStore, auth AuthAPI) *Transport {
	return &Transport{
		Store:         store,
		Auth:          auth,
		ApplicationID: "test-app",
	}
}

func TestTransport_AttachesStandardHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-1")

	httpClient := &http.Client{Transport: newTestTransport(store, &countingAuthAPI{})}
	resp, err := httpClient.Get(server.URL + "/api/v1/quests")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer access-1", got.Get("Authorization"))
	assert.Equal(t, "test-app", got.Get("Application-Id"))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

func TestTransport_NoTokenMeansNoAuthorizationHeader(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	httpClient := &http.Client{Transport: newTestTransport(NewMemoryTokenStore(), &countingAuthAPI{})}
	resp, err := httpClient.Get(server.URL + "/api/v1/quests")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, got.Get("Authorization"))
}

func TestTransport_RefreshesOnceAndRetries(t *testing.T) {
	var hits int64
	server := httptest.NewServer(acceptToken("access-new", &hits))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{tokens: &TokenPair{AccessToken: "access-new", RefreshToken: "refresh-new"}}

	httpClient := &http.Client{Transport: newTestTransport(store, auth)}
	resp, err := httpClient.Get(server.URL + "/api/v1/quests")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, auth.refreshCalls())
	assert.Equal(t, "refresh-old", auth.lastUsed)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))

	// The rotated pair replaced the stored one
	assert.Equal(t, "access-new", store.AccessToken())
	assert.Equal(t, "refresh-new", store.RefreshToken())
}

func TestTransport_SecondUnauthorizedPropagates(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid or expired token","code":401}`))
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{tokens: &TokenPair{AccessToken: "access-new", RefreshToken: "refresh-new"}}

	httpClient := &http.Client{Transport: newTestTransport(store, auth)}
	resp, err := httpClient.Get(server.URL + "/api/v1/quests")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The 401 from the retried request reaches the caller untouched
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, auth.refreshCalls())
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestTransport_RefreshEndpointIsExempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid refresh token","code":401}`))
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{tokens: &TokenPair{AccessToken: "access-new"}}

	httpClient := &http.Client{Transport: newTestTransport(store, auth)}
	resp, err := httpClient.Post(server.URL+refreshPath, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, auth.refreshCalls())
}

func TestTransport_RefreshFailureTearsDownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid or expired token","code":401}`))
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{err: &APIError{StatusCode: 401, Message: "Invalid refresh token"}}

	expired := false
	transport := newTestTransport(store, auth)
	transport.OnSessionExpired = func() { expired = true }

	httpClient := &http.Client{Transport: transport}
	_, err := httpClient.Get(server.URL + "/api/v1/quests")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token refresh failed")
	assert.True(t, expired)
	assert.Empty(t, store.AccessToken())
	assert.Empty(t, store.RefreshToken())
}

func TestTransport_MissingRefreshTokenTearsDownSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")

	auth := &countingAuthAPI{}

	expired := false
	transport := newTestTransport(store, auth)
	transport.OnSessionExpired = func() { expired = true }

	httpClient := &http.Client{Transport: transport}
	resp, err := httpClient.Get(server.URL + "/api/v1/quests")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Without a refresh token the 401 stands and the session is gone
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, auth.refreshCalls())
	assert.True(t, expired)
	assert.Empty(t, store.AccessToken())
}

func TestTransport_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer access-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{tokens: &TokenPair{AccessToken: "access-new", RefreshToken: "refresh-new"}}

	httpClient := &http.Client{Transport: newTestTransport(store, auth)}
	resp, err := httpClient.Post(server.URL+"/api/v1/quests", "application/json", strings.NewReader(`{"title":"Dragon Hunt"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"title":"Dragon Hunt"}`, `{"title":"Dragon Hunt"}`}, bodies)
}

func TestTransport_ConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	var hits int64
	server := httptest.NewServer(acceptToken("access-new", &hits))
	defer server.Close()

	store := NewMemoryTokenStore()
	store.SetAccessToken("access-old")
	store.SetRefreshToken("refresh-old")

	auth := &countingAuthAPI{tokens: &TokenPair{AccessToken: "access-new", RefreshToken: "refresh-new"}}

	httpClient := &http.Client{Transport: newTestTransport(store, auth)}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := httpClient.Get(server.URL + "/api/v1/quests")
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- &APIError{StatusCode: resp.StatusCode}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("request failed: %v", err)
	}

	// Every racing 401 reuses the pair stored by whichever request won
	assert.Equal(t, 1, auth.refreshCalls())
}
