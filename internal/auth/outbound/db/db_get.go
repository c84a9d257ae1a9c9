package db

import (
	"context"

	"github.com/smartfin/smartauth/internal/auth/entity"
)

const queryGetAccountByEmail = `
SELECT id, email, password_digest, created_at
FROM accounts
WHERE email = $1`

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (acc *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	var a entity.Account
	err = s.mapError(s.conn.QueryRow(ctx, queryGetAccountByEmail, email).
		Scan(&a.ID, &a.Email, &a.PasswordDigest, &a.CreatedAt))
	if err != nil {
		return nil, err
	}

	return &a, nil
}
