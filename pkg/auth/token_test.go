package auth

import (
	"testing"
	"time"

	"github.com/usxc/classroom-library-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "classroom-library"}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), "user_2abc", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID() != "user_2abc" {
		t.Fatalf("unexpected subject %q", claims.UserID())
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), "user_2abc", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	minted, err := MintAccessToken(config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"}, time.Now(), "user_2abc", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig(), minted); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestParseRejectsTamperedSecret(t *testing.T) {
	minted, err := MintAccessToken(config.JWTConfig{Secret: "other-secret", Issuer: "classroom-library"}, time.Now(), "user_2abc", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWTConfig(), minted); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestMintValidation(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintAccessToken(cfg, time.Now(), "", time.Hour); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := MintAccessToken(cfg, time.Now(), "user_2abc", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}
