package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
)

type SignupInitInput struct {
	Email    string `validate:"required,emailaddr"`
	Password string `validate:"required,password"`
}

type SignupInitOutput struct {
	Email string
}

// SignupInit starts a signup: it stores a pending signup with a hashed
// one-time code and emails the code to the address.
//
// The pending record is written before delivery; a delivery failure removes
// it again so a retry starts clean.
func (s *Usecase) SignupInit(ctx context.Context, in SignupInitInput) (*SignupInitOutput, error) {
	ctx, span := s.startSpan(ctx, "SignupInit")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	allowed, err := s.limiter.Allow(ctx, "signup_init", in.Email,
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

	if _, err := s.repoDB.GetAccountByEmail(ctx, in.Email); err == nil {
		return nil, goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	} else if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
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

	passwordDigest, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	pending := entity.PendingSignup{
		Email:          in.Email,
		OTPDigest:      string(otpDigest),
		PasswordDigest: string(passwordDigest),
		Attempts:       0,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.GetMinute("modules.auth.otp_ttl_minutes")),
	}
	if err := s.repoCache.UpsertPendingSignup(ctx, pending); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert pending signup", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.notifier.SendSignupCode(ctx, in.Email, code); err != nil {
		slog.ErrorContext(ctx, "failed to send verification code", "email", in.Email, "error", err)

		if derr := s.repoCache.DeletePendingSignup(ctx, in.Email); derr != nil {
			slog.ErrorContext(ctx, "failed to delete pending signup after delivery failure", "email", in.Email, "error", derr)
		}

		return nil, goerror.NewBusiness("Failed to send verification code, please try again", goerror.CodeUnavailable)
	}

	return &SignupInitOutput{Email: in.Email}, nil
}
