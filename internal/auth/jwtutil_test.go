package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundtrip(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignHS256(map[string]any{"sub": "u1", "admin": true}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims["sub"] != "u1" {
		t.Fatalf("unexpected sub %v", claims["sub"])
	}
	if admin, _ := claims["admin"].(bool); !admin {
		t.Fatal("expected admin claim")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignHS256(map[string]any{"sub": "u1"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAndVerifyHS256(token, []byte("other")); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + ".eyJzdWIiOiJ1MiJ9." + parts[2]
	if _, err := ParseAndVerifyHS256(tampered, secret); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := []byte("s3cret")
	token, err := SignHS256(map[string]any{
		"sub": "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAndVerifyHS256(token, secret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
