package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestAuthService_Signup_CreatesUserAndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.Auth.Signup(ctx, "  A@X.com ", "secret1", "A")
	require.NoError(t, err)
	require.NotNil(t, res.User)

	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	ok, err := env.Sessions.Matches(ctx, res.User.ID.String(), res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)

	claims, err := env.Issuer.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	assert.Len(t, env.Events.ofType("user_registered"), 1)
}

func TestAuthService_Signup_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Auth.Signup(ctx, "a@x.com", "secret1", "A")
	require.NoError(t, err)

	_, err = env.Auth.Signup(ctx, "A@x.com", "another1", "B")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password, userName string
	}{
		{name: "empty email", email: "", password: "secret1", userName: "A"},
		{name: "empty name", email: "a@x.com", password: "secret1", userName: " "},
		{name: "short password", email: "a@x.com", password: "12345", userName: "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Auth.Signup(ctx, tt.email, tt.password, tt.userName)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Signin_SameErrorForUnknownEmailAndBadPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a@x.com", models.RoleCustomer)

	_, errUnknown := env.Auth.Signin(ctx, "nobody@x.com", "secret1")
	_, errBadPass := env.Auth.Signin(ctx, "a@x.com", "wrong-password")

	require.ErrorIs(t, errUnknown, ErrUnauthorized)
	require.ErrorIs(t, errBadPass, ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errBadPass.Error())
	assert.Contains(t, errUnknown.Error(), InvalidCredentials)
}

func TestAuthService_Signin_LastSessionWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a@x.com", models.RoleAdmin)

	first, err := env.Auth.Signin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	second, err := env.Auth.Signin(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.True(t, second.User.IsAdmin())

	_, _, err = env.Auth.Refresh(ctx, first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	access, _, err := env.Auth.Refresh(ctx, second.Tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := env.Issuer.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.Auth.Signup(ctx, "a@x.com", "secret1", "A")
	require.NoError(t, err)

	_, _, err = env.Auth.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = env.Auth.Refresh(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = env.Auth.Refresh(ctx, res.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.Auth.Signup(ctx, "a@x.com", "secret1", "A")
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, res.Tokens.RefreshToken))

	_, _, err = env.Auth.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Len(t, env.Events.ofType("user_logged_out"), 1)
}

func TestAuthService_Logout_Edges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.NoError(t, env.Auth.Logout(ctx, ""))
	assert.ErrorIs(t, env.Auth.Logout(ctx, "garbage"), ErrUnauthorized)

	res, err := env.Auth.Signup(ctx, "a@x.com", "secret1", "A")
	require.NoError(t, err)

	env.Redis.SetError("cache down")
	err = env.Auth.Logout(ctx, res.Tokens.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "a@x.com", models.RoleCustomer)

	got, err := env.Auth.Authenticate(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	require.NoError(t, env.DB.Delete(&models.User{}, "id = ?", u.ID).Error)
	_, err = env.Auth.Authenticate(ctx, u.ID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.Auth.Authenticate(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
