package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, instrument.NewNoop()), mr
}

// Timestamps are truncated to seconds because the store keeps unix seconds.
func testPending(email string) entity.PendingSignup {
	now := time.Now().UTC().Truncate(time.Second)
	return entity.PendingSignup{
		Email:          email,
		OTPDigest:      "otp-digest",
		PasswordDigest: "password-digest",
		Attempts:       0,
		CreatedAt:      now,
		ExpiresAt:      now.Add(10 * time.Minute),
	}
}

func TestUpsertAndGetPendingSignup(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	ps := testPending("user@example.com")

	// Act
	if err := c.UpsertPendingSignup(ctx, ps); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := c.GetPendingSignup(ctx, "user@example.com")

	// Assert
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OTPDigest != ps.OTPDigest || got.PasswordDigest != ps.PasswordDigest {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", got.Attempts)
	}
	if !got.ExpiresAt.Equal(ps.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", ps.ExpiresAt, got.ExpiresAt)
	}
}

func TestGetPendingSignupMissing(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)

	// Act
	_, err := c.GetPendingSignup(context.Background(), "missing@example.com")

	// Assert
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	ps := testPending("user@example.com")
	if err := c.UpsertPendingSignup(ctx, ps); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := c.IncrementAttempts(ctx, "user@example.com"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	// Act: a second init overwrites code and counter.
	ps.OTPDigest = "fresh-digest"
	if err := c.UpsertPendingSignup(ctx, ps); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	// Assert
	got, err := c.GetPendingSignup(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OTPDigest != "fresh-digest" {
		t.Fatalf("expected fresh digest, got %q", got.OTPDigest)
	}
	if got.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %d", got.Attempts)
	}
}

func TestIncrementAttempts(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	if err := c.UpsertPendingSignup(ctx, testPending("user@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Act
	first, err1 := c.IncrementAttempts(ctx, "user@example.com")
	second, err2 := c.IncrementAttempts(ctx, "user@example.com")

	// Assert
	if err1 != nil || err2 != nil {
		t.Fatalf("increment: %v %v", err1, err2)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected 1 then 2, got %d then %d", first, second)
	}
}

func TestIncrementAttemptsConcurrent(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	if err := c.UpsertPendingSignup(ctx, testPending("user@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Act: simultaneous wrong guesses must not lose updates.
	const workers = 20
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.IncrementAttempts(ctx, "user@example.com")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// Assert
	for err := range errs {
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	got, err := c.GetPendingSignup(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Attempts != workers {
		t.Fatalf("expected %d attempts, got %d", workers, got.Attempts)
	}
}

func TestIncrementAttemptsMissing(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)

	// Act
	_, err := c.IncrementAttempts(context.Background(), "missing@example.com")

	// Assert
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRefreshPendingSignup(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	ps := testPending("user@example.com")
	if err := c.UpsertPendingSignup(ctx, ps); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := c.IncrementAttempts(ctx, "user@example.com"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	// Act
	newExpiry := ps.ExpiresAt.Add(10 * time.Minute)
	if err := c.RefreshPendingSignup(ctx, "user@example.com", "fresh-digest", newExpiry); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Assert
	got, err := c.GetPendingSignup(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OTPDigest != "fresh-digest" {
		t.Fatalf("expected fresh digest, got %q", got.OTPDigest)
	}
	if got.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %d", got.Attempts)
	}
	if !got.ExpiresAt.Equal(newExpiry) {
		t.Fatalf("expected expiry %v, got %v", newExpiry, got.ExpiresAt)
	}
	if got.PasswordDigest != ps.PasswordDigest {
		t.Fatalf("password digest must be untouched, got %q", got.PasswordDigest)
	}
}

func TestRefreshPendingSignupMissing(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)

	// Act
	err := c.RefreshPendingSignup(context.Background(), "missing@example.com", "digest", time.Now().Add(time.Minute))

	// Assert
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPendingSignupKeyTTL(t *testing.T) {
	// Arrange
	c, mr := newTestCache(t)
	ctx := context.Background()
	ps := testPending("user@example.com")
	ps.ExpiresAt = time.Now().Add(time.Minute).UTC()

	// Act
	if err := c.UpsertPendingSignup(ctx, ps); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	// Assert: Redis reclaimed the key on its own.
	_, err := c.GetPendingSignup(ctx, "user@example.com")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found after ttl, got %v", err)
	}
}

func TestDeletePendingSignup(t *testing.T) {
	// Arrange
	c, _ := newTestCache(t)
	ctx := context.Background()
	if err := c.UpsertPendingSignup(ctx, testPending("user@example.com")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Act
	if err := c.DeletePendingSignup(ctx, "user@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Assert
	_, err := c.GetPendingSignup(ctx, "user@example.com")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
