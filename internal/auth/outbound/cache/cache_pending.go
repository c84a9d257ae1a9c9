package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
)

const (
	fieldOTPDigest      = "otp_digest"
	fieldPasswordDigest = "password_digest"
	fieldAttempts       = "attempts"
	fieldCreatedAt      = "created_at"
	fieldExpiresAt      = "expires_at"
)

// incrementAttemptsScript bumps the attempt counter only while the pending
// signup still exists. Returns -1 when the key is gone.
var incrementAttemptsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// refreshPendingScript swaps the code digest, resets attempts, and pushes the
// expiry forward while keeping every other field. Returns 0 when the key is gone.
var refreshPendingScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "otp_digest", ARGV[1], "attempts", 0, "expires_at", ARGV[2])
redis.call("PEXPIREAT", KEYS[1], ARGV[3])
return 1
`)

// UpsertPendingSignup writes the full pending signup and aligns the key TTL
// with the record expiry. An existing record for the email is replaced.
func (s *Cache) UpsertPendingSignup(ctx context.Context, ps entity.PendingSignup) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPendingSignup")
	defer func() { s.endSpan(span, err) }()

	key := pendingKey(ps.Email)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldOTPDigest, ps.OTPDigest,
		fieldPasswordDigest, ps.PasswordDigest,
		fieldAttempts, ps.Attempts,
		fieldCreatedAt, ps.CreatedAt.Unix(),
		fieldExpiresAt, ps.ExpiresAt.Unix(),
	)
	pipe.PExpireAt(ctx, key, ps.ExpiresAt)

	_, err = pipe.Exec(ctx)
	return err
}

func (s *Cache) GetPendingSignup(ctx context.Context, email string) (ps *entity.PendingSignup, err error) {
	ctx, span := s.startSpan(ctx, "GetPendingSignup")
	defer func() { s.endSpan(span, err) }()

	fields, err := s.client.HGetAll(ctx, pendingKey(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	attempts, err := strconv.ParseInt(fields[fieldAttempts], 10, 32)
	if err != nil {
		return nil, err
	}

	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, err
	}

	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.PendingSignup{
		Email:          email,
		OTPDigest:      fields[fieldOTPDigest],
		PasswordDigest: fields[fieldPasswordDigest],
		Attempts:       int32(attempts),
		CreatedAt:      time.Unix(createdAt, 0).UTC(),
		ExpiresAt:      time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// IncrementAttempts returns the attempt count after the increment, or
// goerror.ErrNotFound when the pending signup no longer exists.
func (s *Cache) IncrementAttempts(ctx context.Context, email string) (attempts int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementAttempts")
	defer func() { s.endSpan(span, err) }()

	count, err := incrementAttemptsScript.Run(ctx, s.client, []string{pendingKey(email)}).Int64()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		err = goerror.ErrNotFound
		return 0, err
	}

	return int32(count), nil
}

// RefreshPendingSignup installs a fresh code digest with a zeroed attempt
// counter and a new expiry. The stored password digest is untouched.
func (s *Cache) RefreshPendingSignup(ctx context.Context, email, otpDigest string, expiresAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "RefreshPendingSignup")
	defer func() { s.endSpan(span, err) }()

	ok, err := refreshPendingScript.Run(ctx, s.client,
		[]string{pendingKey(email)},
		otpDigest, expiresAt.Unix(), expiresAt.UnixMilli(),
	).Int64()
	if err != nil {
		return err
	}
	if ok == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}

func (s *Cache) DeletePendingSignup(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "DeletePendingSignup")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Del(ctx, pendingKey(email)).Err()
	return err
}
