package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideatoapp/chatgateway/tools/errs"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("roundtrip-secret"))

	token, expireAt, err := Generate(opts, "u-100")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(opts.TTL), expireAt, 5*time.Second)

	sub, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "u-100", sub)
}

func TestVerifyExpiredToken(t *testing.T) {
	opts := DefaultOptions([]byte("s"))
	now := time.Now().Add(-time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "u-100",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	})
	token, err := tok.SignedString(opts.Secret)
	require.NoError(t, err)

	_, err = Verify(opts, token)
	require.Error(t, err)
	assert.True(t, errs.ErrTokenExpired.Is(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("right")), "u-100")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	require.Error(t, err)
	assert.True(t, errs.ErrTokenExpired.Is(err))
}

func TestVerifyMissingOrMalformedToken(t *testing.T) {
	opts := DefaultOptions([]byte("s"))

	// no credential presented: auth failure, not expiry
	_, err := Verify(opts, "")
	require.Error(t, err)
	assert.True(t, errs.ErrAuthFailed.Is(err))

	_, err = Verify(opts, "   ")
	require.Error(t, err)
	assert.True(t, errs.ErrAuthFailed.Is(err))

	_, err = Verify(opts, "a.b.c")
	require.Error(t, err)
	assert.True(t, errs.ErrAuthFailed.Is(err))
	assert.False(t, errs.ErrTokenExpired.Is(err))
}

func TestGenerateRejectsUnsupportedAlg(t *testing.T) {
	_, _, err := Generate(Options{Secret: []byte("s"), Alg: "RS256"}, "u-100")
	require.Error(t, err)
}
