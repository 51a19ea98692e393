package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("dashboard", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "dashboard" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "dashboard")
	}
	if claims.Issuer != issuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, issuer)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
}

func TestGenerateToken_DefaultTTL(t *testing.T) {
	token, err := GenerateToken("cli", testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	diff := claims.ExpiresAt.Time.Sub(time.Now().Add(DefaultTokenTTL))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL should be ~24h, got expiry diff of %v", diff)
	}
}

func TestGenerateToken_NoSecret(t *testing.T) {
	if _, err := GenerateToken("cli", "", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("GenerateToken() error = %v, want ErrNoSecret", err)
	}
	if _, err := ParseToken("x.y.z", ""); !errors.Is(err, ErrNoSecret) {
		t.Errorf("ParseToken() error = %v, want ErrNoSecret", err)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := GenerateToken("cli", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	sign := func(claims jwt.Claims, method jwt.SigningMethod) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "empty", token: "", secret: testSecret},
		{name: "garbage", token: "not-a-valid-jwt", secret: testSecret},
		{name: "malformed", token: "abc.def", secret: testSecret},
		{name: "wrong secret", token: good, secret: "wrong-secret"},
		{
			name: "expired",
			token: sign(jwt.RegisteredClaims{
				Issuer: issuer, Subject: "cli", ExpiresAt: jwt.NewNumericDate(past),
			}, jwt.SigningMethodHS256),
			secret: testSecret,
		},
		{
			name: "no expiry",
			token: sign(jwt.RegisteredClaims{
				Issuer: issuer, Subject: "cli",
			}, jwt.SigningMethodHS256),
			secret: testSecret,
		},
		{
			name: "foreign issuer",
			token: sign(jwt.RegisteredClaims{
				Issuer: "someone-else", Subject: "cli", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}, jwt.SigningMethodHS256),
			secret: testSecret,
		},
		{
			name: "missing subject",
			token: sign(jwt.RegisteredClaims{
				Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}, jwt.SigningMethodHS256),
			secret: testSecret,
		},
		{
			name: "wrong algorithm",
			token: sign(jwt.RegisteredClaims{
				Issuer: issuer, Subject: "cli", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}, jwt.SigningMethodHS512),
			secret: testSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
