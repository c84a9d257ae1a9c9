package validator

import (
	"errors"
	"testing"
)

type signupPayload struct {
	Email    string `validate:"required,emailaddr"`
	Password string `validate:"required,password"`
}

func TestValidateOK(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	// Act
	err = v.Validate(signupPayload{Email: "user@example.com", Password: "Secret123!"})

	// Assert
	if err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateFieldErrors(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	// Act
	err = v.Validate(signupPayload{Email: "not-an-email", Password: "short"})

	// Assert
	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %v", err)
	}
	if _, ok := verr["email"]; !ok {
		t.Fatalf("expected email field error, got %v", verr)
	}
	if _, ok := verr["password"]; !ok {
		t.Fatalf("expected password field error, got %v", verr)
	}
}

func TestValidateRequired(t *testing.T) {
	// Arrange
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	// Act
	err = v.Validate(signupPayload{})

	// Assert
	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %v", err)
	}
	if len(verr.Values()) != 2 {
		t.Fatalf("expected two field errors, got %v", verr)
	}
}
