package util

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestValidateJWT(t *testing.T) {
	claims := &Claims{
		Email: "ada@example.com",
		Name:  "Ada",
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	got, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if got.Subject != "user-1" || got.Email != "ada@example.com" || got.Name != "Ada" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	claims := &Claims{StandardClaims: jwt.StandardClaims{Subject: "user-1"}}
	token := signToken(t, claims, "other-secret", jwt.SigningMethodHS256)

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	claims := &Claims{StandardClaims: jwt.StandardClaims{
		Subject:   "user-1",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}}
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateJWTMissingSubject(t *testing.T) {
	claims := &Claims{Email: "ada@example.com"}
	token := signToken(t, claims, testSecret, jwt.SigningMethodHS256)

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Fatal("expected error for token without a subject")
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-jwt", testSecret); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
