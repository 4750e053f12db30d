package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestValidateJWTHS256(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		Email:  "learner@example.com",
		Tenant: "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	parsed, err := ValidateJWT(signHS256(t, secret, claims), secret)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if parsed.Email != "learner@example.com" || parsed.Tenant != "acme" {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if parsed.Subject != "user-123" {
		t.Fatalf("unexpected subject: %s", parsed.Subject)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token := signHS256(t, "right-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := ValidateJWT(token, "wrong-secret"); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	secret := "test-secret"
	token := signHS256(t, secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := ValidateJWT(token, secret); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token", "secret"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
