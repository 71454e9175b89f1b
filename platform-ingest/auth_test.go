package platformingest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tj/assert"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, tenantID string, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	assert.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	t.Run("valid token yields tenant id", func(t *testing.T) {
		tenantID, err := VerifyToken("Bearer "+signToken(t, "acme", testSecret), testSecret)
		assert.NoError(t, err)
		assert.Equal(t, "acme", tenantID)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := VerifyToken("", testSecret)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := VerifyToken("Bearer "+signToken(t, "acme", []byte("other")), testSecret)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := VerifyToken("Bearer not.a.jwt", testSecret)
		assert.Error(t, err)
	})

	t.Run("token without tenant claim", func(t *testing.T) {
		_, err := VerifyToken("Bearer "+signToken(t, "", testSecret), testSecret)
		assert.Error(t, err)
	})
}
