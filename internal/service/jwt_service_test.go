package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_GenerateParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute)

	token, err := svc.GenerateAccessToken("u1", "user@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID() != "u1" || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 15*time.Minute)
	if _, err := svc.GenerateAccessToken("u1", ""); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
	if _, err := svc.ParseAccessToken("abc"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid on empty secret, got %v", err)
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("other", time.Minute).GenerateAccessToken("u1", "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := NewJWTService("secret", time.Minute).ParseAccessToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong secret, got %v", err)
	}
}

func signClaims(t *testing.T, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTService_RejectsExpired(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	token := signClaims(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(past),
	}})
	if _, err := NewJWTService("secret", time.Minute).ParseAccessToken(token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_RejectsMissingSubjectOrAudience(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	exp := jwt.NewNumericDate(time.Now().UTC().Add(time.Minute))

	noSub := signClaims(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: exp,
	}})
	if _, err := svc.ParseAccessToken(noSub); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid without subject, got %v", err)
	}

	wrongAud := signClaims(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Audience:  jwt.ClaimStrings{"anon"},
		ExpiresAt: exp,
	}})
	if _, err := svc.ParseAccessToken(wrongAud); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for wrong audience, got %v", err)
	}
}
