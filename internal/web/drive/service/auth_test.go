package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-drive/library/jwt"
)

func TestSignupSigninRoundTrip(t *testing.T) {
	require.NoError(t, jwt.Initialize([]byte("test-secret")))

	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Signup(ctx, "signup@example.com", "s3cret-pass", "Tester")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, []byte("s3cret-pass"), user.PasswordHash)

	token, err := f.auth.Signin(ctx, "signup@example.com", "s3cret-pass")
	require.NoError(t, err)

	uc := new(jwt.UserClaims)
	require.NoError(t, jwt.ParseClaims(token, uc))
	require.Equal(t, strconv.FormatUint(user.ID, 10), uc.Subject)
	require.Equal(t, "Tester", uc.DisplayName)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, "twice@example.com", "password-one", "")
	require.NoError(t, err)

	_, err = f.auth.Signup(ctx, "twice@example.com", "password-two", "")
	require.True(t, IsCode(err, ErrCodeInvalidArguments))
}

func TestSigninRejectsBadCredentials(t *testing.T) {
	require.NoError(t, jwt.Initialize([]byte("test-secret")))

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, "badcreds@example.com", "right-password", "")
	require.NoError(t, err)

	_, err = f.auth.Signin(ctx, "badcreds@example.com", "wrong-password")
	require.True(t, IsCode(err, ErrCodeUnauthorized))

	_, err = f.auth.Signin(ctx, "nobody@example.com", "whatever-pass")
	require.True(t, IsCode(err, ErrCodeUnauthorized))
}
