package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/domain"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ae *apperr.AErr
	require.ErrorAs(t, err, &ae)
	return ae.Fields
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", false)

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"duplicate email", RegisterInput{Username: "alice2", Email: "alice@example.com", Password: testPassword, Password2: testPassword}, "email"},
		{"duplicate username", RegisterInput{Username: "alice", Email: "other@example.com", Password: testPassword, Password2: testPassword}, "username"},
		{"mismatch", RegisterInput{Username: "bob", Email: "bob@example.com", Password: testPassword, Password2: testPassword + "x"}, "password"},
		{"too short", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "a1b2", Password2: "a1b2"}, "password"},
		{"numeric", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "1234567890123", Password2: "1234567890123"}, "password"},
		{"common", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "password123", Password2: "password123"}, "password"},
		{"similar", RegisterInput{Username: "robert", Email: "robert@example.com", Password: "robert2024!", Password2: "robert2024!"}, "password"},
		{"bad email", RegisterInput{Username: "bob", Email: "nope", Password: testPassword, Password2: testPassword}, "email"},
		{"bad username", RegisterInput{Username: "bob smith", Email: "bob@example.com", Password: testPassword, Password2: testPassword}, "username"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.auth.Register(ctx, tc.in)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
			assert.Contains(t, fieldsOf(t, err), tc.field)
		})
	}
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice", false)

	for _, id := range []string{"alice", "alice@example.com"} {
		pair, err := e.auth.Login(ctx, LoginInput{Identifier: id, Password: testPassword})
		require.NoError(t, err, id)
		claims, err := e.jwt.ParseAs(pair.Access, auth.TypeAccess)
		require.NoError(t, err)
		assert.Equal(t, alice.UserID, claims.UID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.False(t, claims.IsAdmin)
		_, err = e.jwt.ParseAs(pair.Refresh, auth.TypeRefresh)
		require.NoError(t, err)
	}

	_, err := e.auth.Login(ctx, LoginInput{Username: "alice@example.com", Password: testPassword})
	assert.NoError(t, err, "legacy username field is accepted")

	_, err = e.auth.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	assert.EqualError(t, err, "Invalid username/email or password")

	_, err = e.auth.Login(ctx, LoginInput{Identifier: "ghost", Password: testPassword})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	_, err = e.auth.Login(ctx, LoginInput{Password: testPassword})
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice", false)
	bob := e.register(t, "bob", false)

	pair, err := e.auth.Login(ctx, LoginInput{Identifier: "alice", Password: testPassword})
	require.NoError(t, err)

	at, err := e.auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, at.Access)

	_, err = e.auth.Refresh(ctx, pair.Access)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err), "access token is not a refresh token")

	err = e.auth.Logout(ctx, alice, "")
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
	err = e.auth.Logout(ctx, alice, "garbage")
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
	err = e.auth.Logout(ctx, bob, pair.Refresh)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	err = e.auth.Logout(ctx, domain.Caller{}, pair.Refresh)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))

	require.NoError(t, e.auth.Logout(ctx, alice, pair.Refresh))
	_, err = e.auth.Refresh(ctx, pair.Refresh)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err), "revoked refresh token")
}

func TestRefreshFailsForBannedUser(t *testing.T) {
	e := newEnv(t)
	admin := e.register(t, "root", true)
	e.register(t, "alice", false)
	pair, err := e.auth.Login(ctx, LoginInput{Identifier: "alice", Password: testPassword})
	require.NoError(t, err)

	me, err := e.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, e.admin.Ban(ctx, admin, me.ID))

	_, err = e.auth.Refresh(ctx, pair.Refresh)
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	_, err = e.auth.Login(ctx, LoginInput{Identifier: "alice", Password: testPassword})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
	active, err := e.auth.Active(ctx, me.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func resetParts(t *testing.T, body string) (uid, token string) {
	t.Helper()
	i := strings.Index(body, "/reset-password/")
	require.GreaterOrEqual(t, i, 0, body)
	parts := strings.Split(strings.TrimSpace(body[i+len("/reset-password/"):]), "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice", false)

	msg, err := e.auth.RequestPasswordReset(ctx, ResetRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Equal(t, MsgResetSent, msg)
	_, sent := e.mail.last()
	assert.False(t, sent, "unknown email sends nothing")

	_, err = e.auth.RequestPasswordReset(ctx, ResetRequest{Email: "not-an-email"})
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))

	msg, err = e.auth.RequestPasswordReset(ctx, ResetRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, MsgResetSent, msg)
	m, sent := e.mail.last()
	require.True(t, sent)
	assert.Equal(t, "alice@example.com", m.To)
	assert.Equal(t, "Password Reset", m.Subject)
	assert.Contains(t, m.Body, "http://localhost:3000/reset-password/")
	uid, token := resetParts(t, m.Body)

	err = e.auth.ConfirmPasswordReset(ctx, "!!!", token, ResetConfirm{NewPassword: "An0ther-secret"})
	assert.EqualError(t, err, "Invalid reset link.")
	err = e.auth.ConfirmPasswordReset(ctx, auth.EncodeUID("nobody"), token, ResetConfirm{NewPassword: "An0ther-secret"})
	assert.EqualError(t, err, "Invalid reset link.")
	err = e.auth.ConfirmPasswordReset(ctx, uid, token+"x", ResetConfirm{NewPassword: "An0ther-secret"})
	assert.EqualError(t, err, "Invalid or expired token.")
	err = e.auth.ConfirmPasswordReset(ctx, uid, token, ResetConfirm{NewPassword: "short"})
	assert.Contains(t, fieldsOf(t, err), "new_password")

	require.NoError(t, e.auth.ConfirmPasswordReset(ctx, uid, token, ResetConfirm{NewPassword: "An0ther-secret"}))

	_, err = e.auth.Login(ctx, LoginInput{Identifier: "alice", Password: "An0ther-secret"})
	require.NoError(t, err)
	_, err = e.auth.Login(ctx, LoginInput{Identifier: "alice", Password: testPassword})
	assert.Error(t, err)

	err = e.auth.ConfirmPasswordReset(ctx, uid, token, ResetConfirm{NewPassword: "Third-secret9"})
	assert.EqualError(t, err, "Invalid or expired token.", "token is single use")
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice", false)

	me, err := e.auth.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = e.auth.Me(ctx, domain.Caller{})
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}
