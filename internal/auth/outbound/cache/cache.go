// Package cache stores pending signups in Redis.
//
// A pending signup lives in a hash at "pending_signup:<email>" whose TTL
// matches the OTP expiry, so Redis reclaims abandoned signups on its own.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "pending_signup:"

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func pendingKey(email string) string {
	return keyPrefix + email
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
