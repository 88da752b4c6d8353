package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"postboard/internal/domain"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens, err := NewTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens failed: %v", err)
	}

	raw, issued, err := tokens.Issue(&domain.User{ID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if issued.ID == "" {
		t.Error("expected a token id")
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Errorf("ID = %q, want %q", claims.ID, issued.ID)
	}
}

func TestTokens_ParseRejects(t *testing.T) {
	tokens, _ := NewTokens("secret", time.Hour)
	other, _ := NewTokens("other-secret", time.Hour)

	foreign, _, err := other.Issue(&domain.User{ID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	expiredTokens, _ := NewTokens("secret", time.Minute)
	expiredTokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredTokens.Issue(&domain.User{ID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "none algorithm", token: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewTokens_RequiresSecret(t *testing.T) {
	if _, err := NewTokens("  ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
