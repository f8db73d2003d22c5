package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveWithAuth(header string) *httptest.ResponseRecorder {
	handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/drafts", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// Feature: inventory-platform, Property 7: Draft endpoints reject requests without a valid bearer token
func TestProperty_MissingOrMalformedTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("garbage authorization headers get 401", prop.ForAll(
		func(header string) bool {
			w := serveWithAuth(header)
			if w.Code != http.StatusUnauthorized {
				t.Logf("FAIL: header %q got status %d", header, w.Code)
				return false
			}
			return true
		},
		gen.OneGenOf(
			gen.Const(""),
			gen.AlphaString(),
			gen.AlphaString().Map(func(s string) string { return "Bearer " + s }),
			gen.AlphaString().Map(func(s string) string { return "Basic " + s }),
		),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: inventory-platform, Property 8: Signed tokens carry subject and role into the request
func TestProperty_ValidTokensPopulateContext(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("subject and role reach the handler", prop.ForAll(
		func(userID string, role string) bool {
			token, err := SignToken(testSecret, userID, role, time.Hour)
			if err != nil {
				t.Logf("FAIL: sign: %v", err)
				return false
			}

			var gotID, gotRole string
			handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				gotRole, _ = GetUserRole(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/api/drafts", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK || gotID != userID || gotRole != role {
				t.Logf("FAIL: status %d, id %q role %q", w.Code, gotID, gotRole)
				return false
			}
			return true
		},
		gen.Identifier(),
		gen.OneConstOf(RoleAdmin, RoleManager, RoleStaff),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	token, err := SignToken(testSecret, "u-1", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	w := serveWithAuth("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestWrongSecretIsRejected(t *testing.T) {
	token, err := SignToken("other-secret", "u-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serveWithAuth("Bearer "+token).Code)
}

func TestNonHMACTokenIsRejected(t *testing.T) {
	claims := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serveWithAuth("Bearer "+token).Code)
}

func TestTokenWithoutRoleIsRejected(t *testing.T) {
	token, err := SignToken(testSecret, "u-1", "", time.Hour)
	require.NoError(t, err)

	w := serveWithAuth("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token claims")
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin allowed", RoleAdmin, http.StatusOK},
		{"manager allowed", RoleManager, http.StatusOK},
		{"staff forbidden", RoleStaff, http.StatusForbidden},
		{"no role forbidden", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(testSecret, zap.NewNop())(
				RequireRole(zap.NewNop(), RoleAdmin, RoleManager)(okHandler()),
			)
			if tt.role == "" {
				handler = RequireRole(zap.NewNop(), RoleAdmin)(okHandler())
			}

			req := httptest.NewRequest(http.MethodPost, "/api/drafts/x/submit", nil)
			if tt.role != "" {
				token, err := SignToken(testSecret, "u-1", tt.role, time.Hour)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
