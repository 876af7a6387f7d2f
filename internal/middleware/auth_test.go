package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clientzap/internal/util"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "test-secret"

func bearerToken(t *testing.T, subject string) string {
	t.Helper()
	claims := &util.Claims{
		Email: "ada@example.com",
		Name:  "Ada",
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func TestAuthMiddlewareInjectsUser(t *testing.T) {
	var gotUserID string
	var gotClaims *util.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(UserContextKey).(string)
		gotClaims, _ = r.Context().Value(ClaimsContextKey).(*util.Claims)
	})

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	req.Header.Set("Authorization", bearerToken(t, "user-1"))
	rr := httptest.NewRecorder()
	AuthMiddleware(testSecret)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusOK)
	}
	if gotUserID != "user-1" {
		t.Fatalf("user id=%q, want user-1", gotUserID)
	}
	if gotClaims == nil || gotClaims.Email != "ada@example.com" {
		t.Fatalf("claims not injected: %+v", gotClaims)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run for rejected requests")
	})
	mw := AuthMiddleware(testSecret)(next)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/forms", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			mw.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status=%d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}
