package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidDigits is returned when the configured code length is unusable.
var ErrInvalidDigits = errors.New("otp: digits must be between 4 and 10")

// Generator produces one-time codes.
type Generator interface {
	// Generate returns a fresh code as a zero-padded decimal string.
	Generate() (string, error)
}

// NumericCode implements Generator using crypto/rand.
//
// A 6-digit code covers 000000-999999 with uniform probability.
type NumericCode struct {
	digits int
	max    *big.Int
}

// NewNumericCode constructs a NumericCode generator for the given length.
func NewNumericCode(digits int) (*NumericCode, error) {
	if digits < 4 || digits > 10 {
		return nil, ErrInvalidDigits
	}

	max := big.NewInt(10)
	max.Exp(max, big.NewInt(int64(digits)), nil)

	return &NumericCode{digits: digits, max: max}, nil
}

// Generate returns a fresh code as a zero-padded decimal string.
func (g *NumericCode) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", fmt.Errorf("otp: failed to draw random code: %w", err)
	}

	return fmt.Sprintf("%0*d", g.digits, n), nil
}
