package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Auth endpoint paths, relative to the API base URL
const (
	loginPath   = "/api/v1/auth/login"
	refreshPath = "/api/v1/auth/refresh-token"
)

// APIError is a non-2xx response decoded from the server's JSON envelope
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// AuthAPI performs the raw login and refresh calls. Both bypass the
// refreshing transport: a 401 from these endpoints must never trigger a
// nested refresh attempt.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// authAPI implements AuthAPI over a plain http.Client
type authAPI struct {
	baseURL       string
	applicationID string
	httpClient    *http.Client
}

// newAuthAPI creates an AuthAPI for the given base URL
func newAuthAPI(baseURL, applicationID string, httpClient *http.Client) *authAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &authAPI{
		baseURL:       baseURL,
		applicationID: applicationID,
		httpClient:    httpClient,
	}
}

// loginResponse mirrors the server's login data payload
type loginResponse struct {
	User   json.RawMessage `json:"user"`
	Tokens *TokenPair      `json:"tokens"`
}

// Login calls the login endpoint with credentials
func (a *authAPI) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var data loginResponse
	err := a.post(ctx, loginPath, map[string]string{
		"username": username,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Tokens == nil {
		return nil, fmt.Errorf("login response missing tokens")
	}
	return data.Tokens, nil
}

// Refresh calls the refresh endpoint with the refresh token
func (a *authAPI) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var tokens TokenPair
	err := a.post(ctx, refreshPath, map[string]string{
		"refreshToken": refreshToken,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// post sends a JSON body, decodes the response envelope, and unmarshals
// the data payload into out
func (a *authAPI) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Application-Id", a.applicationID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// envelope is the server's JSON response shape
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

// decodeEnvelope unmarshals the envelope and maps failures to *APIError
func decodeEnvelope(resp *http.Response, out interface{}) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}

	if !env.Success || resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data payload: %w", err)
		}
	}

	return nil
}
