package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartfin/smartauth/internal/auth/entity"
	"github.com/smartfin/smartauth/internal/pkg/config"
	"github.com/smartfin/smartauth/internal/pkg/goerror"
	"github.com/smartfin/smartauth/internal/pkg/goroutine"
	"github.com/smartfin/smartauth/internal/pkg/hash"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"github.com/smartfin/smartauth/internal/pkg/jwt"
	"github.com/smartfin/smartauth/internal/pkg/validator"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedOTP struct{ code string }

func (g fixedOTP) Generate() (string, error) { return g.code, nil }

type fixedUID struct{ id int64 }

func (g fixedUID) Generate() int64 { return g.id }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "00000000-0000-0000-0000-000000000000" }

type fakeLimiter struct {
	allowed bool
	err     error
	bucket  string
	key     string
}

func (l *fakeLimiter) Allow(_ context.Context, bucket, key string, _ int64, _ time.Duration) (bool, error) {
	l.bucket = bucket
	l.key = key
	return l.allowed, l.err
}

type fakeDB struct {
	accounts  map[string]entity.Account
	createErr error
	created   []entity.Account
}

func newFakeDB() *fakeDB {
	return &fakeDB{accounts: map[string]entity.Account{}}
}

func (f *fakeDB) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	acc, ok := f.accounts[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (f *fakeDB) CreateAccount(_ context.Context, acc entity.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.accounts[acc.Email]; ok {
		return goerror.ErrConflict
	}
	f.accounts[acc.Email] = acc
	f.created = append(f.created, acc)
	return nil
}

type fakeCache struct {
	pending map[string]entity.PendingSignup
}

func newFakeCache() *fakeCache {
	return &fakeCache{pending: map[string]entity.PendingSignup{}}
}

func (f *fakeCache) UpsertPendingSignup(_ context.Context, ps entity.PendingSignup) error {
	f.pending[ps.Email] = ps
	return nil
}

func (f *fakeCache) GetPendingSignup(_ context.Context, email string) (*entity.PendingSignup, error) {
	ps, ok := f.pending[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ps, nil
}

func (f *fakeCache) IncrementAttempts(_ context.Context, email string) (int32, error) {
	ps, ok := f.pending[email]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	ps.Attempts++
	f.pending[email] = ps
	return ps.Attempts, nil
}

func (f *fakeCache) RefreshPendingSignup(_ context.Context, email, otpDigest string, expiresAt time.Time) error {
	ps, ok := f.pending[email]
	if !ok {
		return goerror.ErrNotFound
	}
	ps.OTPDigest = otpDigest
	ps.Attempts = 0
	ps.ExpiresAt = expiresAt
	f.pending[email] = ps
	return nil
}

func (f *fakeCache) DeletePendingSignup(_ context.Context, email string) error {
	delete(f.pending, email)
	return nil
}

type fakeMessaging struct {
	published []SignupCompletedEvent
}

func (f *fakeMessaging) PublishSignupCompleted(_ context.Context, msg SignupCompletedEvent) error {
	f.published = append(f.published, msg)
	return nil
}

type fakeNotifier struct {
	sendErr error
	sent    []string
	codes   []string
}

func (f *fakeNotifier) SendSignupCode(_ context.Context, email, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	f.codes = append(f.codes, code)
	return nil
}

type fixture struct {
	uc       *Usecase
	db       *fakeDB
	cache    *fakeCache
	mq       *fakeMessaging
	notifier *fakeNotifier
	limiter  *fakeLimiter
	hmac     hash.Hash
	bcrypt   hash.Hash
	routines *goroutine.Manager
	jwt      jwt.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  auth:
    otp_rate_limit: 5
    otp_rate_window_minutes: 15
    otp_ttl_minutes: 10
    otp_max_attempts: 3
`))
	if err != nil {
		t.Fatalf("new config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	tokenJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "smartauth-test",
		Audiences: []string{"smartauth-test"},
		TTL:       time.Hour,
		Clock:     fixedClock{now: testNow},
		UUID:      fixedUUID{},
	})
	if err != nil {
		t.Fatalf("new jwt: %v", err)
	}

	f := &fixture{
		db:       newFakeDB(),
		cache:    newFakeCache(),
		mq:       &fakeMessaging{},
		notifier: &fakeNotifier{},
		limiter:  &fakeLimiter{allowed: true},
		hmac:     hash.NewHMACSHA256("test-hmac-secret"),
		bcrypt:   hash.NewBcrypt(4, ""),
		routines: goroutine.NewManager(4),
		jwt:      tokenJWT,
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoCache:     f.cache,
		RepoMessaging: f.mq,
		Notifier:      f.notifier,
		Goroutine:     f.routines,
		Limiter:       f.limiter,
		Validator:     v10,
		Config:        cfg,
		HMAC:          f.hmac,
		Password:      f.bcrypt,
		UID:           fixedUID{id: 42},
		OTP:           fixedOTP{code: "123456"},
		Clock:         fixedClock{now: testNow},
		JWT:           tokenJWT,
		Instrument:    instrument.NewNoop(),
	})

	return f
}

func (f *fixture) seedPending(t *testing.T, email, code, password string, attempts int32, expiresAt time.Time) {
	t.Helper()

	otpDigest, err := f.hmac.Hash(code)
	if err != nil {
		t.Fatalf("hash otp: %v", err)
	}
	passwordDigest, err := f.bcrypt.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	f.cache.pending[email] = entity.PendingSignup{
		Email:          email,
		OTPDigest:      string(otpDigest),
		PasswordDigest: string(passwordDigest),
		Attempts:       attempts,
		CreatedAt:      testNow.Add(-time.Minute),
		ExpiresAt:      expiresAt,
	}
}

func assertBusiness(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected goerror, got %v", err)
	}
	if gerr.Code() != code {
		t.Fatalf("expected code %v, got %v (message %q)", code, gerr.Code(), gerr.Msg())
	}
	return gerr
}

func TestSignupInit(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.SignupInit(context.Background(), SignupInitInput{
		Email:    "  New.User@Example.COM ",
		Password: "Secret123!",
	})

	// Assert
	if err != nil {
		t.Fatalf("signup init failed: %v", err)
	}
	if out.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", out.Email)
	}

	ps, ok := f.cache.pending["new.user@example.com"]
	if !ok {
		t.Fatal("expected pending signup to be stored")
	}
	if !f.hmac.Verify(ps.OTPDigest, "123456") {
		t.Fatal("stored otp digest does not match issued code")
	}
	if !f.bcrypt.Verify(ps.PasswordDigest, "Secret123!") {
		t.Fatal("stored password digest does not match password")
	}
	if got, want := ps.ExpiresAt, testNow.Add(10*time.Minute); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}

	if len(f.notifier.codes) != 1 || f.notifier.codes[0] != "123456" {
		t.Fatalf("expected code 123456 to be sent, got %v", f.notifier.codes)
	}
	if f.limiter.bucket != "signup_init" || f.limiter.key != "new.user@example.com" {
		t.Fatalf("unexpected limiter call: bucket=%q key=%q", f.limiter.bucket, f.limiter.key)
	}
}

func TestSignupInitInvalidInput(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.SignupInit(context.Background(), SignupInitInput{
		Email:    "not-an-email",
		Password: "short",
	})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected goerror, got %v", err)
	}
	if gerr.Code() != goerror.CodeInvalidInput {
		t.Fatalf("expected invalid input, got %v", gerr.Code())
	}
}

func TestSignupInitEmailTaken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.accounts["taken@example.com"] = entity.Account{ID: 1, Email: "taken@example.com"}

	// Act
	_, err := f.uc.SignupInit(context.Background(), SignupInitInput{
		Email:    "taken@example.com",
		Password: "Secret123!",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeConflict)
	if len(f.notifier.sent) != 0 {
		t.Fatal("no code should be sent for an existing account")
	}
}

func TestSignupInitRateLimited(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.limiter.allowed = false

	// Act
	_, err := f.uc.SignupInit(context.Background(), SignupInitInput{
		Email:    "user@example.com",
		Password: "Secret123!",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeTooManyRequest)
	if len(f.cache.pending) != 0 {
		t.Fatal("no pending signup should be stored when rate limited")
	}
}

func TestSignupInitDeliveryFailureRollsBack(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.notifier.sendErr = errors.New("smtp unavailable")

	// Act
	_, err := f.uc.SignupInit(context.Background(), SignupInitInput{
		Email:    "user@example.com",
		Password: "Secret123!",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeUnavailable)
	if _, ok := f.cache.pending["user@example.com"]; ok {
		t.Fatal("pending signup should be removed after delivery failure")
	}
}

func TestSignupVerify(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(5*time.Minute))

	// Act
	out, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("signup verify failed: %v", err)
	}
	if out.AccountID != 42 {
		t.Fatalf("expected account id 42, got %d", out.AccountID)
	}
	if out.AccessToken == "" {
		t.Fatal("expected access token")
	}

	acc, ok := f.db.accounts["user@example.com"]
	if !ok {
		t.Fatal("expected account to be created")
	}
	if !f.bcrypt.Verify(acc.PasswordDigest, "Secret123!") {
		t.Fatal("account password digest does not match signup password")
	}
	if _, ok := f.cache.pending["user@example.com"]; ok {
		t.Fatal("pending signup should be deleted after verify")
	}

	if err := f.routines.Wait(); err != nil {
		t.Fatalf("background publish failed: %v", err)
	}
	if len(f.mq.published) != 1 || f.mq.published[0].AccountID != 42 {
		t.Fatalf("expected signup completed event, got %v", f.mq.published)
	}
}

func TestSignupVerifyUnknownEmail(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "missing@example.com",
		Code:  "123456",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeNotFound)
}

func TestSignupVerifyExpired(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(-time.Second))

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "123456",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeNotFound)
	if _, ok := f.cache.pending["user@example.com"]; ok {
		t.Fatal("expired pending signup should be purged")
	}
}

func TestSignupVerifyWrongCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(5*time.Minute))

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "654321",
	})

	// Assert
	gerr := assertBusiness(t, err, goerror.CodeBadRequest)
	if got := gerr.Fields()["attempts_left"]; got != "2" {
		t.Fatalf("expected 2 attempts left, got %q", got)
	}
	if f.cache.pending["user@example.com"].Attempts != 1 {
		t.Fatalf("expected attempts to be incremented, got %d", f.cache.pending["user@example.com"].Attempts)
	}
}

func TestSignupVerifyWrongLengthCodeBurnsAttempt(t *testing.T) {
	// Arrange: any non-empty code is compared against the digest, so a
	// malformed guess costs an attempt like any other mismatch.
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(5*time.Minute))

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "12345",
	})

	// Assert
	gerr := assertBusiness(t, err, goerror.CodeBadRequest)
	if got := gerr.Fields()["attempts_left"]; got != "2" {
		t.Fatalf("expected 2 attempts left, got %q", got)
	}
	if f.cache.pending["user@example.com"].Attempts != 1 {
		t.Fatalf("expected attempts to be incremented, got %d", f.cache.pending["user@example.com"].Attempts)
	}
}

func TestSignupVerifyTrimsCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(5*time.Minute))

	// Act
	out, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  " 123456 ",
	})

	// Assert
	if err != nil {
		t.Fatalf("signup verify failed: %v", err)
	}
	if out.AccountID != 42 {
		t.Fatalf("expected account id 42, got %d", out.AccountID)
	}
}

func TestSignupVerifyAttemptsExhausted(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 2, testNow.Add(5*time.Minute))

	// Act: third mismatch reaches the ceiling.
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "654321",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeTooManyRequest)
	if _, ok := f.cache.pending["user@example.com"]; ok {
		t.Fatal("exhausted pending signup should be purged")
	}

	// A correct code afterwards must not work anymore.
	_, err = f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "123456",
	})
	assertBusiness(t, err, goerror.CodeNotFound)
}

func TestSignupVerifyExhaustedBeforeCheck(t *testing.T) {
	// Arrange: attempts already at the ceiling, correct code submitted.
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 3, testNow.Add(5*time.Minute))

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "123456",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeTooManyRequest)
	if len(f.db.created) != 0 {
		t.Fatal("no account should be created")
	}
}

func TestSignupVerifyAccountRace(t *testing.T) {
	// Arrange: another request created the account between init and verify.
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "123456", "Secret123!", 0, testNow.Add(5*time.Minute))
	f.db.createErr = goerror.ErrConflict

	// Act
	_, err := f.uc.SignupVerify(context.Background(), SignupVerifyInput{
		Email: "user@example.com",
		Code:  "123456",
	})

	// Assert
	assertBusiness(t, err, goerror.CodeConflict)
}

func TestSignupResend(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "999999", "Secret123!", 2, testNow.Add(time.Minute))

	// Act
	out, err := f.uc.SignupResend(context.Background(), SignupResendInput{Email: "user@example.com"})

	// Assert
	if err != nil {
		t.Fatalf("signup resend failed: %v", err)
	}
	if out.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", out.Email)
	}

	ps := f.cache.pending["user@example.com"]
	if !f.hmac.Verify(ps.OTPDigest, "123456") {
		t.Fatal("expected otp digest to be replaced with the fresh code")
	}
	if ps.Attempts != 0 {
		t.Fatalf("expected attempts reset, got %d", ps.Attempts)
	}
	if got, want := ps.ExpiresAt, testNow.Add(10*time.Minute); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}
	if !f.bcrypt.Verify(ps.PasswordDigest, "Secret123!") {
		t.Fatal("password digest must be kept on resend")
	}
	if f.limiter.bucket != "resend_otp" {
		t.Fatalf("unexpected limiter bucket %q", f.limiter.bucket)
	}
}

func TestSignupResendNoPending(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.SignupResend(context.Background(), SignupResendInput{Email: "missing@example.com"})

	// Assert
	assertBusiness(t, err, goerror.CodeNotFound)
}

func TestSignupResendExpired(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "999999", "Secret123!", 0, testNow.Add(-time.Second))

	// Act
	_, err := f.uc.SignupResend(context.Background(), SignupResendInput{Email: "user@example.com"})

	// Assert
	assertBusiness(t, err, goerror.CodeNotFound)
	if _, ok := f.cache.pending["user@example.com"]; ok {
		t.Fatal("expired pending signup should be purged")
	}
}

func TestSignupResendDeliveryFailureKeepsCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.seedPending(t, "user@example.com", "999999", "Secret123!", 1, testNow.Add(time.Minute))
	f.notifier.sendErr = errors.New("smtp unavailable")

	// Act
	_, err := f.uc.SignupResend(context.Background(), SignupResendInput{Email: "user@example.com"})

	// Assert: the refreshed record stays live, unlike SignupInit.
	assertBusiness(t, err, goerror.CodeUnavailable)
	ps, ok := f.cache.pending["user@example.com"]
	if !ok {
		t.Fatal("pending signup must survive a resend delivery failure")
	}
	if !f.hmac.Verify(ps.OTPDigest, "123456") {
		t.Fatal("fresh code should remain stored")
	}
}

func TestLogin(t *testing.T) {
	// Arrange
	f := newFixture(t)
	digest, err := f.bcrypt.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.db.accounts["user@example.com"] = entity.Account{
		ID:             7,
		Email:          "user@example.com",
		PasswordDigest: string(digest),
		CreatedAt:      testNow,
	}

	// Act
	out, err := f.uc.Login(context.Background(), LoginInput{
		Email:    "User@Example.com",
		Password: "Secret123!",
	})

	// Assert
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if out.AccountID != 7 {
		t.Fatalf("expected account id 7, got %d", out.AccountID)
	}

	clm, err := f.jwt.Verify(out.AccessToken)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if clm.UserEmail != "user@example.com" {
		t.Fatalf("unexpected token email %q", clm.UserEmail)
	}
}

func TestLoginUniformFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	digest, err := f.bcrypt.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.db.accounts["known@example.com"] = entity.Account{
		ID:             7,
		Email:          "known@example.com",
		PasswordDigest: string(digest),
	}

	// Act
	_, errUnknown := f.uc.Login(context.Background(), LoginInput{
		Email:    "unknown@example.com",
		Password: "Secret123!",
	})
	_, errWrongPass := f.uc.Login(context.Background(), LoginInput{
		Email:    "known@example.com",
		Password: "WrongPass1!",
	})

	// Assert: both failures are indistinguishable to the caller.
	gerrUnknown := assertBusiness(t, errUnknown, goerror.CodeUnauthorized)
	gerrWrongPass := assertBusiness(t, errWrongPass, goerror.CodeUnauthorized)
	if gerrUnknown.Msg() != gerrWrongPass.Msg() {
		t.Fatalf("failure messages differ: %q vs %q", gerrUnknown.Msg(), gerrWrongPass.Msg())
	}
}

func TestProfile(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.accounts["user@example.com"] = entity.Account{
		ID:        7,
		Email:     "user@example.com",
		CreatedAt: testNow,
	}
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{UserID: 7, UserEmail: "user@example.com"})

	// Act
	out, err := f.uc.Profile(ctx)

	// Assert
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if out.ID != 7 || out.Email != "user@example.com" {
		t.Fatalf("unexpected profile %+v", out)
	}
}

func TestProfileUnauthenticated(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Profile(context.Background())

	// Assert
	assertBusiness(t, err, goerror.CodeUnauthorized)
}
