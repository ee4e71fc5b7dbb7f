package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseClaims(t *testing.T, tokenString, secret string) *JwtCustomClaims {
	t.Helper()

	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	return claims
}

func TestGenerateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	access, refresh, err := GenerateJWT("user-1", "student@uni.ac.ke", "agent")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims := parseClaims(t, access, "test-secret")
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "student@uni.ac.ke", claims.Email)
	assert.Equal(t, "agent", claims.Role)

	refreshClaims := parseClaims(t, refresh, "test-secret")
	assert.Equal(t, "user-1", refreshClaims.UserID)
	assert.Greater(t, refreshClaims.ExpiresAt, claims.ExpiresAt)
}

func TestGenerateJWTRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, _, err := GenerateJWT("user-1", "student@uni.ac.ke", "user")
	assert.Error(t, err)
}

func TestGenerateJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	access, _, err := GenerateJWT("user-1", "student@uni.ac.ke", "user")
	require.NoError(t, err)

	claims := &JwtCustomClaims{}
	_, err = jwt.ParseWithClaims(access, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestClaimsValid(t *testing.T) {
	now := time.Now()

	valid := JwtCustomClaims{StandardClaims: jwt.StandardClaims{ExpiresAt: now.Add(time.Hour).Unix()}}
	assert.NoError(t, valid.Valid())

	expired := JwtCustomClaims{StandardClaims: jwt.StandardClaims{ExpiresAt: now.Add(-time.Hour).Unix()}}
	assert.Error(t, expired.Valid())

	notYet := JwtCustomClaims{StandardClaims: jwt.StandardClaims{NotBefore: now.Add(time.Hour).Unix()}}
	assert.Error(t, notYet.Valid())
}
