package otp

import (
	"errors"
	"testing"
)

func TestNewNumericCodeRejectsBadLength(t *testing.T) {
	for _, digits := range []int{0, 3, 11} {
		if _, err := NewNumericCode(digits); !errors.Is(err, ErrInvalidDigits) {
			t.Fatalf("digits=%d: expected ErrInvalidDigits, got %v", digits, err)
		}
	}
}

func TestGenerate(t *testing.T) {
	// Arrange
	g, err := NewNumericCode(6)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	// Act & Assert
	for i := 0; i < 100; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}
