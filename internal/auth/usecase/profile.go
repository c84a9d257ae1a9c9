package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smartfin/smartauth/internal/pkg/goerror"
	"github.com/smartfin/smartauth/internal/pkg/jwt"
)

type ProfileOutput struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// Profile returns the account behind the authenticated token.
func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	account, err := s.repoDB.GetAccountByEmail(ctx, clm.UserEmail)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found for token", "email", clm.UserEmail)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", clm.UserEmail, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileOutput{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}, nil
}
