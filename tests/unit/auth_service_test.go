package unit

import (
	"testing"

	"github.com/calebmorris/questdesk/internal/services"
	"github.com/calebmorris/questdesk/tests/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	env := utils.NewTestEnv(t)

	created := env.CreateTestUser("alice", false)

	user, tokens, err := env.AuthService.Login(env.Ctx, "alice", utils.TestPassword)

	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.False(t, tokens.ExpiresAt.IsZero())
}

func TestLogin_WrongPassword(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestUser("alice", false)

	_, _, err := env.AuthService.Login(env.Ctx, "alice", "wrong-password")

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidCredentials, err)
}

func TestLogin_UnknownUser(t *testing.T) {
	env := utils.NewTestEnv(t)

	_, _, err := env.AuthService.Login(env.Ctx, "nobody", utils.TestPassword)

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidCredentials, err)
}

func TestRefreshTokens_RotatesBothTokens(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestUser("alice", false)

	_, tokens, err := env.AuthService.Login(env.Ctx, "alice", utils.TestPassword)
	require.NoError(t, err)

	refreshed, err := env.AuthService.RefreshTokens(env.Ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, refreshed)

	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestRefreshTokens_RejectsAccessToken(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestUser("alice", false)

	_, tokens, err := env.AuthService.Login(env.Ctx, "alice", utils.TestPassword)
	require.NoError(t, err)

	// An access token must not be usable as a refresh token
	_, err = env.AuthService.RefreshTokens(env.Ctx, tokens.AccessToken)

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidToken, err)
}

func TestRefreshTokens_RejectsGarbage(t *testing.T) {
	env := utils.NewTestEnv(t)

	_, err := env.AuthService.RefreshTokens(env.Ctx, "not-a-jwt")

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidToken, err)
}

func TestValidateToken_RejectsRefreshToken(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestUser("alice", false)

	_, tokens, err := env.AuthService.Login(env.Ctx, "alice", utils.TestPassword)
	require.NoError(t, err)

	// A refresh token must not pass access-token validation
	_, err = env.AuthService.ValidateToken(tokens.RefreshToken)

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidToken, err)
}

func TestGetUserFromToken(t *testing.T) {
	env := utils.NewTestEnv(t)

	created := env.CreateTestUser("alice", true)
	token := env.AccessTokenFor(created)

	user, err := env.AuthService.GetUserFromToken(env.Ctx, token)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.IsAdmin)
}
