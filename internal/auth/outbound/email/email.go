// Package email delivers signup verification codes over the mail provider.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"github.com/smartfin/smartauth/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const subjectSignupCode = "Your OTP Verification Code"

type Notifier struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func NewNotifier(client mail.Mail, ins instrument.Instrumentation) *Notifier {
	return &Notifier{client: client, ins: ins}
}

func (n *Notifier) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return n.ins.Tracer("auth.outbound.email").Start(ctx, name)
}

// SendSignupCode emails the verification code as multipart text plus HTML.
func (n *Notifier) SendSignupCode(ctx context.Context, email, code string) (err error) {
	ctx, span := n.startSpan(ctx, "SendSignupCode")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	html, err := renderSignupCodeHTML(signupCodeData{
		Name: recipientName(email),
		Code: code,
	})
	if err != nil {
		return err
	}

	err = n.client.Send(ctx, mail.Message{
		To:      []string{email},
		Subject: subjectSignupCode,
		TextBody: fmt.Sprintf(
			"Your OTP verification code is: %s. This code will expire in 10 minutes. Never share this code with anyone.",
			code,
		),
		HTMLBody: html,
	})

	return err
}

// recipientName derives a display name from the address local part.
func recipientName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "there"
	}

	return local
}
