package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("super-secret")
	user := uuid.NewString()
	token, err := v.Sign(user, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != user || claims.Role != "authenticated" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("super-secret")
	user := uuid.NewString()

	expired, _ := v.Sign(user, time.Now().Add(-time.Minute).Unix())
	wrongKey, _ := NewVerifier("other").Sign(user, time.Now().Add(time.Hour).Unix())
	badSubject, _ := v.Sign("not-a-uuid", time.Now().Add(time.Hour).Unix())
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{Subject: user}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"expired":     expired,
		"wrong key":   wrongKey,
		"bad subject": badSubject,
		"alg none":    none,
		"garbage":     "abc.def.ghi",
	} {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestBearerToken(t *testing.T) {
	if tok, err := BearerToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("got %q %v", tok, err)
	}
	for _, h := range []string{"", "Basic abc", "Bearer ", "bearer abc"} {
		if _, err := BearerToken(h); !errors.Is(err, ErrMissingToken) {
			t.Errorf("%q: expected ErrMissingToken, got %v", h, err)
		}
	}
}

func TestUserIDContext(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Fatal("expected no user id")
	}
	ctx := WithUserID(context.Background(), "u1")
	if id, ok := UserID(ctx); !ok || id != "u1" {
		t.Fatalf("got %q %v", id, ok)
	}
}
