package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smartfin/smartauth/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,emailaddr"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	AccessToken string
	AccountID   int64
	Email       string
}

// Login authenticates an account and returns an access token.
//
// Unknown email and wrong password produce the same error so the endpoint
// cannot be used to probe which addresses are registered.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = normalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	account, err := s.repoDB.GetAccountByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found on login", "email", in.Email)
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(account.PasswordDigest, in.Password) {
		slog.WarnContext(ctx, "password mismatch on login", "account_id", account.ID)
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(account.ID, account.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccessToken: token,
		AccountID:   account.ID,
		Email:       account.Email,
	}, nil
}
