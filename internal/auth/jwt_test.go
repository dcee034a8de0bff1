package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "storefront-test-secret-0123456789abcdef"

var (
	demoShopper = User{ID: "user-shopper", Username: "shopper", Email: "shopper@example.com", Role: RoleUser}
	demoAdmin   = User{ID: "user-admin", Username: "admin", Email: "admin@example.com", Role: RoleAdmin}
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func registered(issuer string, expiresIn time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "user-shopper",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
}

// ============================================
// Issue / Verify
// ============================================

func TestJWTService_IssueThenVerify(t *testing.T) {
	svc := NewJWTService(testSecret, 24*time.Hour)
	assert.Equal(t, 24*time.Hour, svc.TTL())

	token, expiresAt, err := svc.Issue(demoAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-admin", claims.UserID)
	assert.Equal(t, "user-admin", claims.Subject)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestJWTService_VerifyRejects(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	key := []byte(testSecret)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrInvalidToken},
		{"not a jwt", "storefront", ErrInvalidToken},
		{"other secret", sign(t, jwt.SigningMethodHS256, []byte("another-secret"), Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Hour)}), ErrInvalidToken},
		{"other issuer", sign(t, jwt.SigningMethodHS256, key, Claims{UserID: "u", RegisteredClaims: registered("someone-else", time.Hour)}), ErrInvalidToken},
		{"no expiry", sign(t, jwt.SigningMethodHS256, key, Claims{UserID: "u", RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}), ErrInvalidToken},
		{"HS512", sign(t, jwt.SigningMethodHS512, key, Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Hour)}), ErrInvalidToken},
		{"alg none", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Hour)}), ErrInvalidToken},
		{"expired", sign(t, jwt.SigningMethodHS256, key, Claims{UserID: "u", RegisteredClaims: registered(Issuer, -time.Hour)}), ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

// ============================================
// ParseIdentity
// ============================================

func TestParseIdentity_FromIssuedToken(t *testing.T) {
	svc := NewJWTService(testSecret, time.Hour)
	token, expiresAt, err := svc.Issue(demoShopper)
	require.NoError(t, err)

	id, err := ParseIdentity(token)

	require.NoError(t, err)
	assert.Equal(t, "user-shopper", id.UserID)
	assert.Equal(t, "shopper", id.Username)
	assert.Equal(t, "shopper@example.com", id.Email)
	assert.Equal(t, token, id.Token)
	assert.False(t, id.IsAdmin())
	assert.WithinDuration(t, expiresAt, id.ExpiresAt, time.Second)
}

func TestParseIdentity_SignatureIsNotChecked(t *testing.T) {
	// The client never holds the key; any well-formed token is readable.
	token := sign(t, jwt.SigningMethodHS256, []byte("server-only"), Claims{
		Role:             RoleAdmin,
		RegisteredClaims: registered(Issuer, time.Hour),
	})

	id, err := ParseIdentity(token)

	require.NoError(t, err)
	assert.Equal(t, "user-shopper", id.UserID, "falls back to sub")
	assert.True(t, id.IsAdmin())
}

func TestParseIdentity_Rejects(t *testing.T) {
	key := []byte("k")
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"no expiry", sign(t, jwt.SigningMethodHS256, key, Claims{UserID: "u"}), ErrInvalidToken},
		{"no user", sign(t, jwt.SigningMethodHS256, key, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}), ErrInvalidToken},
		{"expired", sign(t, jwt.SigningMethodHS256, key, Claims{UserID: "u", RegisteredClaims: registered(Issuer, -time.Hour)}), ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentity(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, id)
		})
	}
}

func TestParseIdentity_DefaultsRole(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte("k"), Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Hour)})

	id, err := ParseIdentity(token)

	require.NoError(t, err)
	assert.Equal(t, RoleUser, id.Role)
}

func TestIdentity_Helpers(t *testing.T) {
	var anon *Identity
	assert.False(t, anon.IsAdmin())

	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := &Identity{ExpiresAt: exp}
	assert.False(t, id.Expired(exp.Add(-time.Second)))
	assert.True(t, id.Expired(exp))
	assert.False(t, (&Identity{}).Expired(exp), "no expiry never expires")
}
