package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("super-secret")

func TestNewToken_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(UserClaims{UserID: 7, Email: "kim@x.com", Name: "Kim", IsAdmin: true}, time.Hour, secret)
	require.NoError(t, err)

	got, err := ParseToken(tok, secret)
	require.NoError(t, err)

	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "kim@x.com", got.Email)
	assert.Equal(t, "Kim", got.Name)
	assert.True(t, got.IsAdmin)
	require.NotNil(t, got.ExpiresAt)
	require.NotNil(t, got.IssuedAt)
	assert.WithinDuration(t, got.IssuedAt.Add(time.Hour), got.ExpiresAt.Time, time.Second)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(UserClaims{UserID: 1}, -time.Second, secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(UserClaims{UserID: 1}, time.Hour, []byte("right"))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "not.a.jwt", "abc"} {
		_, err := ParseToken(in, secret)
		assert.ErrorIs(t, err, ErrInvalidToken, in)
	}
}

func TestParseToken_RejectsResetToken(t *testing.T) {
	t.Parallel()

	tok, err := NewResetToken(3, "a@b.c", "jti-1", time.Minute, secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestParseResetToken(t *testing.T) {
	t.Parallel()

	tok, err := NewResetToken(3, "a@b.c", "jti-1", 15*time.Minute, secret)
	require.NoError(t, err)

	got, err := ParseResetToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UserID)
	assert.Equal(t, "a@b.c", got.Email)
	assert.Equal(t, "jti-1", got.ID)
	assert.Equal(t, PurposePasswordReset, got.Purpose)
}

func TestParseResetToken_RejectsSessionToken(t *testing.T) {
	t.Parallel()

	tok, err := NewToken(UserClaims{UserID: 1}, time.Hour, secret)
	require.NoError(t, err)

	_, err = ParseResetToken(tok, secret)
	assert.ErrorIs(t, err, ErrWrongPurpose)
}
