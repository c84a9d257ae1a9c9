package db

import (
	"context"

	"github.com/smartfin/smartauth/internal/auth/entity"
)

const queryCreateAccount = `
INSERT INTO accounts (id, email, password_digest, created_at)
VALUES ($1, $2, $3, $4)`

// CreateAccount inserts a new account. The accounts.email UNIQUE constraint is
// the single arbiter of duplicates; a violation surfaces as goerror.ErrConflict.
func (s *DB) CreateAccount(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	_, execErr := s.conn.Exec(ctx, queryCreateAccount, acc.ID, acc.Email, acc.PasswordDigest, acc.CreatedAt)
	err = s.mapError(execErr)
	return err
}
