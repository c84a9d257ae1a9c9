package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smartfin/smartauth/internal/pkg/goerror"
)

type SignupResendInput struct {
	Email string `validate:"required,emailaddr"`
}

type SignupResendOutput struct {
	Email string
}

// SignupResend issues a fresh code for a live pending signup, resetting the
// attempt counter and expiry while keeping the stored password digest.
//
// Unlike SignupInit, a delivery failure does not roll the record back: the
// fresh code stays live and the caller may retry.
func (s *Usecase) SignupResend(ctx context.Context, in SignupResendInput) (*SignupResendOutput, error) {
	ctx, span := s.startSpan(ctx, "SignupResend")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	allowed, err := s.limiter.Allow(ctx, "resend_otp", in.Email,
		s.cfg.GetInt64("modules.auth.otp_rate_limit"),
		s.cfg.GetMinute("modules.auth.otp_rate_window_minutes"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to check otp rate limit", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "otp rate limit exceeded", "email", in.Email)
		return nil, goerror.NewBusiness("Too many OTP requests, please try again later", goerror.CodeTooManyRequest)
	}

	ps, err := s.repoCache.GetPendingSignup(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending signup on resend", "email", in.Email)
		return nil, goerror.NewBusiness("No pending signup for this email", goerror.CodeNotFound)
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
		return nil, goerror.NewBusiness("No pending signup for this email", goerror.CodeNotFound)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	otpDigest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	expiresAt := now.Add(s.cfg.GetMinute("modules.auth.otp_ttl_minutes"))
	if err := s.repoCache.RefreshPendingSignup(ctx, in.Email, string(otpDigest), expiresAt); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("No pending signup for this email", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo refresh pending signup", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.notifier.SendSignupCode(ctx, in.Email, code); err != nil {
		slog.ErrorContext(ctx, "failed to send verification code", "email", in.Email, "error", err)
		return nil, goerror.NewBusiness("Failed to send verification code, please try again", goerror.CodeUnavailable)
	}

	return &SignupResendOutput{Email: in.Email}, nil
}
