// Package platformingest exposes the analytics ingestion REST API: JWT
// tenant authentication, event storage, and the hand-off into the broadcast
// engine.
package platformingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type tenantKeyType string

const tenantKey tenantKeyType = "tenantId"

// TenantClaims is the JWT payload issued by the (out-of-scope) auth service.
type TenantClaims struct {
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}

// VerifyToken validates a bearer token and returns the tenant id it asserts.
func VerifyToken(authHeader string, secret []byte) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("no token provided")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	var claims TenantClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token")
	}
	if claims.TenantID == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.TenantID, nil
}

// Auth is middleware that rejects requests without a valid tenant token and
// stashes the tenant id in the request context.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			tenantID, err := VerifyToken(req.Header.Get("Authorization"), secret)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": err.Error()})
				return
			}
			ctx := context.WithValue(req.Context(), tenantKey, tenantID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant id stored by Auth.
func TenantFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantKey).(string)
	return tenantID
}
