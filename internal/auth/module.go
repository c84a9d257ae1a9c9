// Package auth wires the signup and login module into the application.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/smartfin/smartauth/internal/auth/inbound"
	"github.com/smartfin/smartauth/internal/auth/outbound/cache"
	"github.com/smartfin/smartauth/internal/auth/outbound/db"
	"github.com/smartfin/smartauth/internal/auth/outbound/email"
	"github.com/smartfin/smartauth/internal/auth/outbound/mq"
	"github.com/smartfin/smartauth/internal/auth/usecase"
	"github.com/smartfin/smartauth/internal/pkg/clock"
	"github.com/smartfin/smartauth/internal/pkg/config"
	"github.com/smartfin/smartauth/internal/pkg/goroutine"
	"github.com/smartfin/smartauth/internal/pkg/hash"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"github.com/smartfin/smartauth/internal/pkg/jwt"
	"github.com/smartfin/smartauth/internal/pkg/mail"
	"github.com/smartfin/smartauth/internal/pkg/messaging"
	"github.com/smartfin/smartauth/internal/pkg/otp"
	"github.com/smartfin/smartauth/internal/pkg/ratelimit"
	"github.com/smartfin/smartauth/internal/pkg/router"
	"github.com/smartfin/smartauth/internal/pkg/uid"
	"github.com/smartfin/smartauth/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	notifier := email.NewNotifier(dep.Mail, dep.Instrument)
	limiter := ratelimit.NewRedisFixedWindow(dep.CacheConn)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		Notifier:      notifier,
		Goroutine:     dep.Goroutine,
		Limiter:       limiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		UID:           dep.UID,
		OTP:           dep.OTP,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
