package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/clock"
	"github.com/smartfin/smartauth/internal/pkg/config"
	"github.com/smartfin/smartauth/internal/pkg/goroutine"
	"github.com/smartfin/smartauth/internal/pkg/hash"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"github.com/smartfin/smartauth/internal/pkg/jwt"
	"github.com/smartfin/smartauth/internal/pkg/otp"
	"github.com/smartfin/smartauth/internal/pkg/ratelimit"
	"github.com/smartfin/smartauth/internal/pkg/uid"
	"github.com/smartfin/smartauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// SignupCompletedEvent is published after a verified account is created.
type SignupCompletedEvent struct {
	AccountID int64
	Email     string
}

type repoMessaging interface {
	PublishSignupCompleted(ctx context.Context, msg SignupCompletedEvent) error
}

type repoDB interface {
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	// CreateAccount returns goerror.ErrConflict when the email is already taken.
	CreateAccount(ctx context.Context, acc entity.Account) error
}

type repoCache interface {
	UpsertPendingSignup(ctx context.Context, ps entity.PendingSignup) error
	GetPendingSignup(ctx context.Context, email string) (*entity.PendingSignup, error)
	// IncrementAttempts returns the attempt count after the increment, or
	// goerror.ErrNotFound when no live pending signup exists.
	IncrementAttempts(ctx context.Context, email string) (int32, error)
	// RefreshPendingSignup swaps in a fresh code digest, resets attempts, and
	// extends expiry while keeping the stored password digest.
	RefreshPendingSignup(ctx context.Context, email, otpDigest string, expiresAt time.Time) error
	DeletePendingSignup(ctx context.Context, email string) error
}

type notifier interface {
	SendSignupCode(ctx context.Context, email, code string) error
}

// Usecase implements the signup and login flows.
type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	notifier      notifier
	goroutine     *goroutine.Manager
	limiter       ratelimit.Limiter
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	uid           uid.NumberID
	otp           otp.Generator
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

// Dependency lists everything a Usecase needs.
type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Notifier      notifier
	Goroutine     *goroutine.Manager
	Limiter       ratelimit.Limiter
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	UID           uid.NumberID
	OTP           otp.Generator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

// New constructs a Usecase from its dependencies.
func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		notifier:      dep.Notifier,
		goroutine:     dep.Goroutine,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		uid:           dep.UID,
		otp:           dep.OTP,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int32 {
	if v := s.cfg.GetInt32("modules.auth.otp_max_attempts"); v > 0 {
		return v
	}
	return 3
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
