package jwt

import (
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "test-token-id" }

func newTestJWT(t *testing.T, clk clocker) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "smartauth-test",
		Audiences: []string{"smartauth-test"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      fixedUUID{},
	})
	if err != nil {
		t.Fatalf("new jwt: %v", err)
	}
	return j
}

func TestNewHS512RejectsShortKey(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("too-short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateAndVerify(t *testing.T) {
	// Arrange
	j := newTestJWT(t, fixedClock{now: time.Now()})

	// Act
	token, err := j.Generate(42, "user@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	clm, err := j.Verify(token)

	// Assert
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if clm.UserID != 42 || clm.UserEmail != "user@example.com" {
		t.Fatalf("unexpected claims %+v", clm)
	}
	if clm.ID != "test-token-id" {
		t.Fatalf("unexpected token id %q", clm.ID)
	}
}

func TestVerifyExpired(t *testing.T) {
	// Arrange: token issued two hours in the past with a one hour TTL.
	j := newTestJWT(t, fixedClock{now: time.Now().Add(-2 * time.Hour)})
	token, err := j.Generate(42, "user@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Act
	_, err = j.Verify(token)

	// Assert
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	// Arrange
	j := newTestJWT(t, fixedClock{now: time.Now()})
	token, err := j.Generate(42, "user@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Act
	_, err = j.Verify(token + "x")

	// Assert
	if err == nil {
		t.Fatal("expected a verification error for a tampered token")
	}
}
