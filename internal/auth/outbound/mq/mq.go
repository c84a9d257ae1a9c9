// Package mq publishes auth domain events to the message broker.
package mq

import (
	"context"
	"encoding/json"

	"github.com/smartfin/smartauth/internal/auth/usecase"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"github.com/smartfin/smartauth/internal/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	destinationSignupCompleted = "auth.signup.completed"

	keyOfCorrelationID = "cID"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.outbound.mq").Start(ctx, name)
}

// PublishSignupCompleted emits the event to auth.signup.completed with the
// request correlation ID carried as a message header.
func (m *Messaging) PublishSignupCompleted(ctx context.Context, msg usecase.SignupCompletedEvent) (err error) {
	ctx, span := m.startSpan(ctx, "PublishSignupCompleted")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = m.client.Publish(ctx, destinationSignupCompleted, messaging.OutgoingMessage{
		Body: body,
		Key:  []byte(msg.Email),
		Headers: []messaging.Header{
			{Key: keyOfCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))},
		},
	})

	return err
}
