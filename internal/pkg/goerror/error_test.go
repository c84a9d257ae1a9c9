package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInternal, http.StatusInternalServerError},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeUnavailable, http.StatusBadGateway},
	}

	for _, tc := range cases {
		err := NewBusiness("boom", tc.code)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("%v: expected *Error", tc.code)
		}
		if got := e.StatusCode(); got != tc.want {
			t.Fatalf("%v: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestNewServerWrapsCause(t *testing.T) {
	// Arrange
	cause := errors.New("connection refused")

	// Act
	err := NewServer(cause)

	// Assert
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("server error must unwrap to its cause")
	}
	if e.Msg() != "Internal server error" {
		t.Fatalf("unexpected message %q", e.Msg())
	}
	if e.Type() != TypeServer || e.Code() != CodeInternal {
		t.Fatalf("unexpected classification type=%v code=%v", e.Type(), e.Code())
	}
}

func TestNewBusinessFields(t *testing.T) {
	// Act
	err := NewBusiness("Invalid verification code.", CodeBadRequest, "attempts_left", "2")

	// Assert
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Fields()["attempts_left"] != "2" {
		t.Fatalf("expected attempts_left field, got %v", e.Fields())
	}
	if e.Error() != "Invalid verification code." {
		t.Fatalf("unexpected error string %q", e.Error())
	}
}

func TestNewInvalidFormatDefaultMessage(t *testing.T) {
	var e *Error
	if !errors.As(NewInvalidFormat(), &e) {
		t.Fatal("expected *Error")
	}
	if e.Msg() != "Invalid request body" {
		t.Fatalf("unexpected message %q", e.Msg())
	}
	if !errors.As(NewInvalidFormat("unknown field"), &e) {
		t.Fatal("expected *Error")
	}
	if e.Msg() != "unknown field" {
		t.Fatalf("unexpected message %q", e.Msg())
	}
}
