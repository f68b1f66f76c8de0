package unit

import (
	"testing"

	"github.com/calebmorris/questdesk/internal/services"
	"github.com/calebmorris/questdesk/tests/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_Success(t *testing.T) {
	env := utils.NewTestEnv(t)

	user, err := env.UserService.CreateUser(env.Ctx, "bob", "bob@example.com", "securePassword123", "Bob", false)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "bob", user.Username)
	assert.False(t, user.IsAdmin)
	assert.True(t, user.CheckPassword("securePassword123"))
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestUser("bob", false)

	_, err := env.UserService.CreateUser(env.Ctx, "bob", "other@example.com", "securePassword123", "Bob", false)

	assert.Error(t, err)
	assert.Equal(t, services.ErrUserAlreadyExists, err)
}

func TestCreateUser_WeakPassword(t *testing.T) {
	env := utils.NewTestEnv(t)

	_, err := env.UserService.CreateUser(env.Ctx, "bob", "bob@example.com", "short", "Bob", false)

	assert.Error(t, err)
	assert.Equal(t, services.ErrWeakPassword, err)
}

func TestCreateUser_InvalidEmail(t *testing.T) {
	env := utils.NewTestEnv(t)

	_, err := env.UserService.CreateUser(env.Ctx, "bob", "not-an-email", "securePassword123", "Bob", false)

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidEmail, err)
}

func TestChangePassword(t *testing.T) {
	env := utils.NewTestEnv(t)

	user := env.CreateTestUser("bob", false)

	err := env.UserService.ChangePassword(env.Ctx, user.ID, utils.TestPassword, "newPassword456")
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, _, err = env.AuthService.Login(env.Ctx, "bob", utils.TestPassword)
	assert.Equal(t, services.ErrInvalidCredentials, err)

	_, _, err = env.AuthService.Login(env.Ctx, "bob", "newPassword456")
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := utils.NewTestEnv(t)

	user := env.CreateTestUser("bob", false)

	err := env.UserService.ChangePassword(env.Ctx, user.ID, "wrong-password", "newPassword456")

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidCredentials, err)
}

func TestGetUserByEmail(t *testing.T) {
	env := utils.NewTestEnv(t)

	created := env.CreateTestUser("bob", false)

	user, err := env.UserService.GetUserByEmail(env.Ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = env.UserService.GetUserByEmail(env.Ctx, "nobody@example.com")
	assert.Equal(t, services.ErrUserNotFound, err)
}
