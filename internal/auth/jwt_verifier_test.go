package auth

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("secret", testLogger())
	if err != nil {
		t.Fatalf("NewHMACVerifier() error = %v", err)
	}
	defer v.Close()

	token, err := IssueToken("secret", models.Principal{UserID: 7, Username: "owner", IsAdmin: true}, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	claims, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if got := claims.Principal(); got.UserID != 7 || got.Username != "owner" || !got.IsAdmin {
		t.Errorf("Principal() = %+v", got)
	}
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v, _ := NewHMACVerifier("secret", testLogger())
	p := models.Principal{UserID: 1, IsAdmin: true}

	wrongKey, _ := IssueToken("other", p, time.Minute)
	expired, _ := IssueToken("secret", p, -time.Minute)
	noUser, _ := IssueToken("secret", models.Principal{}, time.Minute)

	// No exp claim
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{UserID: 1}).SignedString([]byte("secret"))
	// HS512 is outside the allowed methods
	otherAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           1,
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"wrong key", wrongKey},
		{"expired", expired},
		{"missing user", noUser},
		{"missing exp", noExp},
		{"disallowed alg", otherAlg},
		{"malformed", "a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.VerifyToken(tt.token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("VerifyToken() error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestVerifyToken_SubjectFallback(t *testing.T) {
	v, _ := NewHMACVerifier("secret", testLogger())
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))

	claims, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
}

func TestNewVerifiers_RequireKeys(t *testing.T) {
	if _, err := NewHMACVerifier("", testLogger()); err == nil {
		t.Error("NewHMACVerifier(\"\") error = nil")
	}
	if _, err := NewJWKSVerifier("", testLogger()); err == nil {
		t.Error("NewJWKSVerifier(\"\") error = nil")
	}
	if _, err := IssueToken("", models.Principal{UserID: 1}, time.Minute); err == nil {
		t.Error("IssueToken(\"\") error = nil")
	}
}
