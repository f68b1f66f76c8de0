package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Quest is the client-side view of a quest record
type Quest struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	Reward        int        `json:"reward"`
	Status        string     `json:"status"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	AllowedEmails []string   `json:"allowed_emails"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// QuestRequest is the client-side view of a user-submitted quest request
type QuestRequest struct {
	ID             string     `json:"id"`
	QuestTitle     string     `json:"quest_title"`
	Description    string     `json:"description"`
	RequesterEmail string     `json:"requester_email"`
	Status         string     `json:"status"`
	ReviewNote     string     `json:"review_note"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// QuestPage is one page of a filtered quest list
type QuestPage struct {
	Quests     []Quest `json:"quests"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// RequestPage is one page of a quest-request search
type RequestPage struct {
	Requests   []QuestRequest `json:"requests"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// UserSummary is the payload of the user-by-email lookup
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ListOptions carries the URL-query-driven list filters and pagination
type ListOptions struct {
	Status string
	Title  string
	Email  string
	Page   int
	Size   int
}

// Client is the QuestDesk API client. All calls go through the refreshing
// Transport, so an expired access token is recovered transparently; the
// session and guards are reachable from here for embedders.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	guard      *RouteGuard
}

// Options configures a Client
type Options struct {
	// Store persists the token pair; a MemoryTokenStore when nil
	Store TokenStore
	// Navigate handles forced route changes (session expiry, logout)
	Navigate Navigator
	// Logger defaults to slog.Default
	Logger *slog.Logger
	// Clock overrides the wall clock, for tests
	Clock func() time.Time
	// HTTPClient is the underlying client for raw auth calls and as the
	// base of the refreshing transport
	HTTPClient *http.Client
}

// New creates a Client for the API at baseURL, identified by applicationID
func New(baseURL, applicationID string, opts Options) *Client {
	store := opts.Store
	if store == nil {
		store = NewMemoryTokenStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth := newAuthAPI(baseURL, applicationID, opts.HTTPClient)

	sessionOpts := []SessionOption{WithLogger(logger)}
	if opts.Clock != nil {
		sessionOpts = append(sessionOpts, WithClock(opts.Clock))
	}
	session := NewSession(store, auth, opts.Navigate, sessionOpts...)

	var base http.RoundTripper
	if opts.HTTPClient != nil {
		base = opts.HTTPClient.Transport
	}
	transport := &Transport{
		Base:          base,
		Store:         store,
		Auth:          auth,
		ApplicationID: applicationID,
		Logger:        logger,
		OnSessionExpired: func() {
			if opts.Navigate != nil {
				opts.Navigate(LoginRoute)
			}
		},
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
		session:    session,
		guard:      NewRouteGuard(session),
	}
}

// Session returns the authenticated-session state
func (c *Client) Session() *Session {
	return c.session
}

// Guard returns the route guard bound to this client's session
func (c *Client) Guard() *RouteGuard {
	return c.guard
}

// ListQuests retrieves a filtered, paginated quest list
func (c *Client) ListQuests(ctx context.Context, opts ListOptions) (*QuestPage, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Title != "" {
		query.Set("title", opts.Title)
	}
	addPagination(query, opts)

	var page QuestPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/quests", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetQuest retrieves a quest by ID
func (c *Client) GetQuest(ctx context.Context, id string) (*Quest, error) {
	var quest Quest
	if err := c.do(ctx, http.MethodGet, "/api/v1/quests/"+id, nil, nil, &quest); err != nil {
		return nil, err
	}
	return &quest, nil
}

// CreateQuest creates a quest record
func (c *Client) CreateQuest(ctx context.Context, quest Quest) (*Quest, error) {
	var created Quest
	if err := c.do(ctx, http.MethodPost, "/api/v1/quests", nil, quest, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateQuest updates a quest record
func (c *Client) UpdateQuest(ctx context.Context, quest Quest) (*Quest, error) {
	var updated Quest
	if err := c.do(ctx, http.MethodPut, "/api/v1/quests/"+quest.ID, nil, quest, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteQuest soft-deletes a quest
func (c *Client) DeleteQuest(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/quests/"+id, nil, nil, nil)
}

// ReplaceAllowedEmails replaces a quest's per-user email allow-list
func (c *Client) ReplaceAllowedEmails(ctx context.Context, questID string, emails []string) error {
	body := map[string][]string{"emails": emails}
	return c.do(ctx, http.MethodPut, "/api/v1/quests/"+questID+"/allowed-emails", nil, body, nil)
}

// SearchRequests retrieves a filtered, paginated quest-request list
func (c *Client) SearchRequests(ctx context.Context, opts ListOptions) (*RequestPage, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Email != "" {
		query.Set("requester_email", opts.Email)
	}
	addPagination(query, opts)

	var page RequestPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/quest-requests", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ApproveRequest approves a pending quest request
func (c *Client) ApproveRequest(ctx context.Context, id, note string) error {
	body := map[string]string{"note": note}
	return c.do(ctx, http.MethodPost, "/api/v1/quest-requests/"+id+"/approve", nil, body, nil)
}

// RejectRequest rejects a pending quest request
func (c *Client) RejectRequest(ctx context.Context, id, note string) error {
	body := map[string]string{"note": note}
	return c.do(ctx, http.MethodPost, "/api/v1/quest-requests/"+id+"/reject", nil, body, nil)
}

// UserByEmail looks up a user by email for the allow-list editor
func (c *Client) UserByEmail(ctx context.Context, email string) (*UserSummary, error) {
	query := url.Values{}
	query.Set("email", email)

	var user UserSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/by-email", query, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do builds the request, sends it through the refreshing transport, and
// decodes the response envelope into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// addPagination sets page/page_size query parameters when present
func addPagination(query url.Values, opts ListOptions) {
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Size > 0 {
		query.Set("page_size", strconv.Itoa(opts.Size))
	}
}
