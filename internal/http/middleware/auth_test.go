package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"go-tenant-auth-service/internal/security"
)

func newJWTManagerForTest() *security.JWTManager {
	return security.NewJWTManager("test-issuer", "test-audience", "access-secret", "refresh-secret")
}

func claimsEcho(t *testing.T, wantSubject uuid.UUID) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims on the request context")
		}
		got, err := claims.SubjectID()
		if err != nil {
			t.Fatalf("subject: %v", err)
		}
		if got != wantSubject {
			t.Fatalf("subject = %s, want %s", got, wantSubject)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorAcceptsValidBearer(t *testing.T) {
	mgr := newJWTManagerForTest()
	userID := uuid.New()
	token, err := mgr.SignAccessToken(userID, false, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Authenticator(mgr)(claimsEcho(t, userID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticatorRejections(t *testing.T) {
	mgr := newJWTManagerForTest()
	refresh, err := mgr.SignRefreshToken(uuid.New(), time.Minute)
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
		{"refresh token on access endpoint", "Bearer " + refresh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			Authenticator(mgr)(okHandler()).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	mgr := newJWTManagerForTest()

	run := func(t *testing.T, token string) int {
		t.Helper()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		Authenticator(mgr)(RequireStaff(okHandler())).ServeHTTP(rec, req)
		return rec.Code
	}

	staffToken, err := mgr.SignAccessToken(uuid.New(), true, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	plainToken, err := mgr.SignAccessToken(uuid.New(), false, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if code := run(t, staffToken); code != http.StatusOK {
		t.Fatalf("staff: expected 200, got %d", code)
	}
	if code := run(t, plainToken); code != http.StatusForbidden {
		t.Fatalf("non-staff: expected 403, got %d", code)
	}
	if code := run(t, ""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}

	// RequireStaff without Authenticator upstream sees no claims.
	rec := httptest.NewRecorder()
	RequireStaff(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no claims: expected 401, got %d", rec.Code)
	}
}
