package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmorris/questdesk/internal/handlers"
	"github.com/calebmorris/questdesk/internal/middleware"
	"github.com/calebmorris/questdesk/tests/utils"
)

// setupTestRouter builds a router with the full API surface wired to a
// hermetic test environment
func setupTestRouter(t *testing.T) (*gin.Engine, *utils.TestEnv) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	env := utils.NewTestEnv(t)

	router := gin.New()

	authMiddleware := middleware.AuthMiddleware(env.AuthService)
	adminMiddleware := middleware.AdminMiddleware()

	v1 := router.Group("/api/v1")

	handlers.NewAuthHandler(env.AuthService).RegisterRoutes(v1)
	handlers.NewQuestHandler(env.QuestService).RegisterRoutes(v1, authMiddleware)
	handlers.NewQuestRequestHandler(env.QuestRequestService).RegisterRoutes(v1, authMiddleware, adminMiddleware)
	handlers.NewUserHandler(env.UserService).RegisterRoutes(v1, authMiddleware, adminMiddleware)

	return router, env
}

// doJSON performs a JSON request against the test router
func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeEnvelope decodes the shared response envelope
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) handlers.Envelope {
	t.Helper()

	var envelope handlers.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestLoginEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	env.CreateTestUser("alice", false)

	w := doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": utils.TestPassword,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	assert.Equal(t, http.StatusOK, envelope.Code)

	data := envelope.Data.(map[string]interface{})
	tokens := data["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["accessToken"])
	assert.NotEmpty(t, tokens["refreshToken"])

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, false, user["isAdmin"])
}

func TestLoginEndpoint_InvalidCredentials(t *testing.T) {
	router, env := setupTestRouter(t)

	env.CreateTestUser("alice", false)

	w := doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Invalid credentials", envelope.Message)
	assert.Equal(t, http.StatusUnauthorized, envelope.Code)
}

func TestLoginEndpoint_MissingFields(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestRefreshTokenEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	env.CreateTestUser("alice", false)

	w := doJSON(router, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": utils.TestPassword,
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	refreshToken := data["tokens"].(map[string]interface{})["refreshToken"].(string)

	w = doJSON(router, "POST", "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": refreshToken,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)

	tokens := envelope.Data.(map[string]interface{})
	assert.NotEmpty(t, tokens["accessToken"])
	assert.NotEmpty(t, tokens["refreshToken"])
}

func TestRefreshTokenEndpoint_InvalidToken(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "POST", "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": "not-a-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestRefreshTokenEndpoint_RejectsAccessToken(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	accessToken := env.AccessTokenFor(user)

	w := doJSON(router, "POST", "/api/v1/auth/refresh-token", "", map[string]string{
		"refreshToken": accessToken,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
