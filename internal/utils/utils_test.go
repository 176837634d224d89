package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "7f1c", "admin", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if time.Until(tok.Exp) <= 14*time.Minute {
		t.Fatalf("unexpected expiry %v", tok.Exp)
	}
	id, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if id.UserID != "7f1c" || id.Role != "admin" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("s3cret", "7f1c", "user", 15)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7f1c", "role": "user", "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("s3cret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7f1c", "role": "user",
	}).SignedString([]byte("s3cret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "7f1c", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))

	for name, raw := range map[string]string{
		"wrong secret": good.Token,
		"expired":      expired,
		"no exp":       noExp,
		"hs512":        hs512,
		"garbage":      "not-a-jwt",
	} {
		secret := "s3cret"
		if name == "wrong secret" {
			secret = "other"
		}
		if _, err := ParseAccessToken(secret, raw); err != ErrInvalidToken {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Fatal("wrong password verified")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, _ := NewRefreshToken(7)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Fatalf("raw tokens %q and %q", a.Raw, b.Raw)
	}
	if d := time.Until(a.Exp); d < 6*24*time.Hour || d > 7*24*time.Hour {
		t.Fatalf("expiry in %s", d)
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Fatal("hash is not a stable function of the raw token")
	}
	if len(HashRefreshRaw("x")) != 64 {
		t.Fatal("hash is not hex sha-256")
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := map[string]error{
		"short":                  ErrPasswordTooShort,
		"long enough":            nil,
		string(make([]byte, 73)): ErrPasswordTooLong,
		string(make([]byte, 72)): nil,
	}
	for in, want := range cases {
		if got := CheckPasswordPolicy(in); got != want {
			t.Errorf("CheckPasswordPolicy(len %d) = %v, want %v", len(in), got, want)
		}
	}
}
