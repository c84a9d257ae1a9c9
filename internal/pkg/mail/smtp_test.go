package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSMTPRequiresHostAndPort(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{Port: 25}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
	if _, err := NewSMTP(SMTPConfig{Host: "localhost"}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
}

func TestSendRejectsEmptyRecipients(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@example.com"})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	// Act
	err = s.Send(context.Background(), Message{Subject: "hi"})

	// Assert
	if !errors.Is(err, ErrSMTPNoRecipients) {
		t.Fatalf("expected ErrSMTPNoRecipients, got %v", err)
	}
}

func TestSendRejectsMissingSender(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	// Act
	err = s.Send(context.Background(), Message{To: []string{"user@example.com"}})

	// Assert
	if !errors.Is(err, ErrSMTPNoSender) {
		t.Fatalf("expected ErrSMTPNoSender, got %v", err)
	}
}

func TestSendHonorsCanceledContext(t *testing.T) {
	// Arrange
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@example.com"})
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err = s.Send(ctx, Message{To: []string{"user@example.com"}, TextBody: "hi"})

	// Assert
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildBodyTextOnly(t *testing.T) {
	body, contentType := buildBody(Message{TextBody: "plain text"})

	if body != "plain text" {
		t.Fatalf("unexpected body %q", body)
	}
	if contentType != "text/plain; charset=UTF-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestBuildBodyHTMLOnly(t *testing.T) {
	body, contentType := buildBody(Message{HTMLBody: "<p>hi</p>"})

	if body != "<p>hi</p>" {
		t.Fatalf("unexpected body %q", body)
	}
	if contentType != "text/html; charset=UTF-8" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestBuildBodyMultipart(t *testing.T) {
	// Act
	body, contentType := buildBody(Message{TextBody: "plain text", HTMLBody: "<p>hi</p>"})

	// Assert
	if !strings.HasPrefix(contentType, "multipart/alternative; boundary=") {
		t.Fatalf("unexpected content type %q", contentType)
	}
	boundary := strings.TrimPrefix(contentType, "multipart/alternative; boundary=")
	if strings.Count(body, "--"+boundary) != 3 {
		t.Fatalf("expected two part markers and a terminator in %q", body)
	}
	if !strings.Contains(body, "plain text") || !strings.Contains(body, "<p>hi</p>") {
		t.Fatalf("both parts must be present in %q", body)
	}
	if !strings.HasSuffix(body, "--"+boundary+"--") {
		t.Fatalf("body must end with the closing boundary, got %q", body)
	}
}
