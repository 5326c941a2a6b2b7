package websocket

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestResolveIdentityVerifiedToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": "user-42",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	assert.Equal(t, "user-42", ResolveIdentity(token, testSecret))
}

func TestResolveIdentityNumericClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": 7,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	assert.Equal(t, "7", ResolveIdentity(token, testSecret))
}

func TestResolveIdentityBearerPrefixStripped(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": "user-42",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	assert.Equal(t, "user-42", ResolveIdentity("Bearer "+token, testSecret))
}

func TestResolveIdentityEmptyTokenMintsGuest(t *testing.T) {
	id := ResolveIdentity("", testSecret)
	assert.True(t, strings.HasPrefix(id, GuestPrefix))

	other := ResolveIdentity("", testSecret)
	assert.NotEqual(t, id, other, "fresh guests must get distinct identities")
}

func TestResolveIdentityGuestTokenReused(t *testing.T) {
	guest := "anonymous_1700000000000_a1b2c3d4e"
	assert.Equal(t, guest, ResolveIdentity(guest, testSecret))
}

func TestResolveIdentityInvalidTokenAdmittedAsGuest(t *testing.T) {
	id := ResolveIdentity("definitely-not-a-jwt", testSecret)
	assert.True(t, strings.HasPrefix(id, GuestPrefix), "lenient policy admits bad tokens as guests")
}

func TestResolveIdentityExpiredTokenAdmittedAsGuest(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": "user-42",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})

	id := ResolveIdentity(token, testSecret)
	assert.True(t, strings.HasPrefix(id, GuestPrefix))
}

func TestResolveIdentityWrongSecretAdmittedAsGuest(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"userId": "user-42",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	id := ResolveIdentity(token, "a-different-secret")
	assert.True(t, strings.HasPrefix(id, GuestPrefix))
}

func TestResolveIdentityWrongSigningMethodAdmittedAsGuest(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"userId": "user-42",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	id := ResolveIdentity(signed, testSecret)
	assert.True(t, strings.HasPrefix(id, GuestPrefix), "only HS256 tokens resolve to a user identity")
}

func TestResolveIdentityMissingClaimAdmittedAsGuest(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id := ResolveIdentity(token, testSecret)
	assert.True(t, strings.HasPrefix(id, GuestPrefix))
}
