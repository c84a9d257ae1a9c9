package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
)

type SignupVerifyInput struct {
	Email string `validate:"required,emailaddr"`
	Code  string `validate:"required"`
}

type SignupVerifyOutput struct {
	AccessToken string
	AccountID   int64
	Email       string
}

// SignupVerify checks the submitted code against the pending signup and, on a
// match, creates the account and issues an access token.
//
// A missing or expired pending signup is reported the same way so callers
// cannot tell the two apart. Each mismatch burns an attempt; reaching the
// ceiling purges the pending signup.
func (s *Usecase) SignupVerify(ctx context.Context, in SignupVerifyInput) (*SignupVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "SignupVerify")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ps, err := s.repoCache.GetPendingSignup(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending signup on verify", "email", in.Email)
		return nil, goerror.NewBusiness("No pending signup for this email or code expired", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get pending signup", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	if ps.Expired(now) {
		if derr := s.repoCache.DeletePendingSignup(ctx, in.Email); derr != nil {
			slog.ErrorContext(ctx, "failed to delete expired pending signup", "email", in.Email, "error", derr)
		}
		return nil, goerror.NewBusiness("No pending signup for this email or code expired", goerror.CodeNotFound)
	}

	maxAttempts := s.maxAttempts()
	if ps.Attempts >= maxAttempts {
		if derr := s.repoCache.DeletePendingSignup(ctx, in.Email); derr != nil {
			slog.ErrorContext(ctx, "failed to delete exhausted pending signup", "email", in.Email, "error", derr)
		}
		return nil, goerror.NewBusiness("Too many failed attempts, please sign up again", goerror.CodeTooManyRequest)
	}

	if !s.hmac.Verify(ps.OTPDigest, in.Code) {
		attempts, err := s.repoCache.IncrementAttempts(ctx, in.Email)
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("No pending signup for this email or code expired", goerror.CodeNotFound)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo increment signup attempts", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}

		if attempts >= maxAttempts {
			if derr := s.repoCache.DeletePendingSignup(ctx, in.Email); derr != nil {
				slog.ErrorContext(ctx, "failed to delete exhausted pending signup", "email", in.Email, "error", derr)
			}
			return nil, goerror.NewBusiness("Too many failed attempts, please sign up again", goerror.CodeTooManyRequest)
		}

		slog.WarnContext(ctx, "invalid verification code", "email", in.Email, "attempts", attempts)
		return nil, goerror.NewBusiness("Invalid verification code", goerror.CodeBadRequest,
			"attempts_left", strconv.Itoa(int(maxAttempts-attempts)))
	}

	account := entity.Account{
		ID:             s.uid.Generate(),
		Email:          in.Email,
		PasswordDigest: ps.PasswordDigest,
		CreatedAt:      now,
	}
	if err := s.repoDB.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "account already exists on verify", "email", in.Email)
			return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create account", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.DeletePendingSignup(ctx, in.Email); err != nil {
		slog.ErrorContext(ctx, "failed to delete pending signup after verify", "email", in.Email, "error", err)
	}

	token, err := s.jwt.Generate(account.ID, account.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Detached from the request context so a client disconnect after the
	// account insert does not drop the event.
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSignupCompleted(ctx, SignupCompletedEvent{
			AccountID: account.ID,
			Email:     account.Email,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish signup completed", "account_id", account.ID, "error", err)
		}
		return nil
	})

	return &SignupVerifyOutput{
		AccessToken: token,
		AccountID:   account.ID,
		Email:       account.Email,
	}, nil
}
