package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"
    at, err := NewAccessToken(secret, 42, 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if at.Token == "" {
        t.Fatal("empty token")
    }
    if remaining := time.Until(at.Exp); remaining < 14*time.Minute || remaining > 16*time.Minute {
        t.Fatalf("expiry %v not around 15 minutes away", at.Exp)
    }

    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("parse signed token: %v", err)
    }
    claims := tok.Claims.(jwt.MapClaims)
    if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
        t.Fatalf("sub claim = %v, want 42", claims["sub"])
    }
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
    at, err := NewAccessToken("secret-a", 1, 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte("secret-b"), nil
    })
    if err == nil && tok.Valid {
        t.Fatal("token verified with the wrong secret")
    }
}

func TestNewRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(30)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    b, err := NewRefreshToken(30)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if a.Raw == b.Raw {
        t.Fatal("two refresh tokens collided")
    }
    if len(a.Raw) != 96 {
        t.Fatalf("raw length = %d, want 96 hex chars", len(a.Raw))
    }
    if HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
        t.Fatal("hashes of distinct tokens collided")
    }
    if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
        t.Fatal("hash is not deterministic")
    }
}

func TestVerifyPassword(t *testing.T) {
    hash, err := HashPassword("hunter2", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "hunter2") {
        t.Fatal("correct password rejected")
    }
    if VerifyPassword(hash, "hunter3") {
        t.Fatal("wrong password accepted")
    }
}
