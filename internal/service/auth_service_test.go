package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"sharefit/internal/auth"
	"sharefit/internal/models"
	"sharefit/internal/repository"
	"sharefit/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthServiceDB(t *testing.T) (*AuthService, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	tokens := auth.NewTokenManager("service-test-secret-0123456789abcdef", 2*time.Hour)
	return NewAuthService(repository.NewUserRepository(env.DB), tokens, bcrypt.MinCost, "ShareFit"), env
}

func TestAuthService_Register(t *testing.T) {
	svc, env := newAuthServiceDB(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Username: " alice ", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice", sess.User.Username)
	assert.Equal(t, "alice", sess.Claims.Username)

	stored := testutil.ReloadUser(t, env.DB, sess.User.ID)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "password123"})
	assertCode(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "al", Password: "password123"})
	assertValidationError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "short"})
	assertValidationError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthServiceDB(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong-password"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "password123"})
	assertCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_TOTPFlow(t *testing.T) {
	svc, env := newAuthServiceDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	userID := sess.User.ID

	_, err = svc.ConfirmTOTPSetup(ctx, userID, "123456")
	assertValidationError(t, err)

	setup, err := svc.BeginTOTPSetup(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.False(t, testutil.ReloadUser(t, env.DB, userID).TOTPEnabled, "pending until confirmed")

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "password123"})
	require.NoError(t, err, "login needs no code before confirmation")

	code, err := auth.TOTPCode(setup.Secret, now)
	require.NoError(t, err)
	wrong := "000000"
	for d := '1'; auth.ValidateTOTP(wrong, setup.Secret, now); d++ {
		wrong = strings.Repeat(string(d), 6)
	}

	_, err = svc.ConfirmTOTPSetup(ctx, userID, wrong)
	assertValidationError(t, err)

	user, err := svc.ConfirmTOTPSetup(ctx, userID, code)
	require.NoError(t, err)
	assert.True(t, user.TOTPEnabled)

	stored := testutil.ReloadUser(t, env.DB, userID)
	assert.Equal(t, setup.Secret, stored.TOTPSecret)
	assert.Empty(t, stored.TOTPPendingSecret)

	_, err = svc.BeginTOTPSetup(ctx, userID)
	assertCode(t, err, models.CodeConflict)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "password123"})
	assertValidationError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "password123", Code: wrong})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "password123", Code: code})
	require.NoError(t, err)
}
