package usecase

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/user-management-api/internal/auth"
	"github.com/vasapolrittideah/user-management-api/internal/config"
	"github.com/vasapolrittideah/user-management-api/internal/mailer"
	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/otp"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
)

// --- fakes ---

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func cloneAccount(a *model.Account) *model.Account {
	clone := *a
	if a.BackupCodes != nil {
		clone.BackupCodes = append([]string(nil), a.BackupCodes...)
	}
	if a.EmailVerificationExpires != nil {
		t := *a.EmailVerificationExpires
		clone.EmailVerificationExpires = &t
	}
	if a.PasswordResetExpires != nil {
		t := *a.PasswordResetExpires
		clone.PasswordResetExpires = &t
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		clone.LastLogin = &t
	}
	return &clone
}

func (f *fakeAccountRepo) byEmailLocked(role model.Role, email string) *model.Account {
	for _, a := range f.accounts {
		if a.Role == role && a.Email == email {
			return a
		}
	}
	return nil
}

func (f *fakeAccountRepo) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.byEmailLocked(account.Role, account.Email) != nil {
		return nil, repository.ErrDuplicateEmail
	}

	stored := cloneAccount(account)
	stored.ID = bson.NewObjectID()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.accounts[stored.ID.Hex()] = stored

	return cloneAccount(stored), nil
}

func (f *fakeAccountRepo) GetAccount(_ context.Context, role model.Role, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return nil, repository.ErrNotFound
	}

	return cloneAccount(a), nil
}

func (f *fakeAccountRepo) GetAccountByEmail(_ context.Context, role model.Role, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a := f.byEmailLocked(role, email); a != nil {
		return cloneAccount(a), nil
	}

	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepo) GetAccountByEmailAnyRole(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}

	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepo) UpdateAccount(
	_ context.Context,
	role model.Role,
	id string,
	params repository.UpdateAccountParams,
) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return nil, repository.ErrNotFound
	}

	// Same contract as the mongo repository: an all-nil update is a bug in
	// the caller, not a no-op.
	if params == (repository.UpdateAccountParams{}) {
		return nil, errors.New("no account fields to update")
	}

	if params.Email != nil {
		if existing := f.byEmailLocked(role, *params.Email); existing != nil && existing.ID != a.ID {
			return nil, repository.ErrDuplicateEmail
		}
		a.Email = *params.Email
	}
	if params.Name != nil {
		a.Name = *params.Name
	}
	if params.PasswordHash != nil {
		a.PasswordHash = *params.PasswordHash
	}
	if params.IsEmailVerified != nil {
		a.IsEmailVerified = *params.IsEmailVerified
	}
	a.UpdatedAt = time.Now()

	return cloneAccount(a), nil
}

func (f *fakeAccountRepo) DeleteAccount(_ context.Context, role model.Role, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return nil, repository.ErrNotFound
	}
	delete(f.accounts, id)

	return cloneAccount(a), nil
}

func (f *fakeAccountRepo) UpdateLastLogin(_ context.Context, role model.Role, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return repository.ErrNotFound
	}
	now := time.Now()
	a.LastLogin = &now

	return nil
}

func (f *fakeAccountRepo) ConsumeEmailVerificationToken(_ context.Context, tokenHash string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.EmailVerificationToken == tokenHash &&
			a.EmailVerificationExpires != nil &&
			a.EmailVerificationExpires.After(time.Now()) {
			a.IsEmailVerified = true
			a.EmailVerificationToken = ""
			a.EmailVerificationExpires = nil
			return cloneAccount(a), nil
		}
	}

	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepo) SetPasswordResetToken(
	_ context.Context,
	role model.Role,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return repository.ErrNotFound
	}
	a.PasswordResetToken = tokenHash
	a.PasswordResetExpires = &expiresAt

	return nil
}

func (f *fakeAccountRepo) ConsumePasswordResetToken(
	_ context.Context,
	tokenHash, newPasswordHash string,
) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.PasswordResetToken == tokenHash &&
			a.PasswordResetExpires != nil &&
			a.PasswordResetExpires.After(time.Now()) {
			a.PasswordHash = newPasswordHash
			a.PasswordResetToken = ""
			a.PasswordResetExpires = nil
			return cloneAccount(a), nil
		}
	}

	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepo) SetTwoFactorEnrollment(
	_ context.Context,
	role model.Role,
	id, secret string,
	hashedBackupCodes []string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return repository.ErrNotFound
	}
	a.TwoFactorSecret = secret
	a.BackupCodes = append([]string(nil), hashedBackupCodes...)

	return nil
}

func (f *fakeAccountRepo) EnableTwoFactor(_ context.Context, role model.Role, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role || a.TwoFactorSecret == "" {
		return repository.ErrNotFound
	}
	a.TwoFactorEnabled = true

	return nil
}

func (f *fakeAccountRepo) DisableTwoFactor(_ context.Context, role model.Role, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return repository.ErrNotFound
	}
	a.TwoFactorEnabled = false
	a.TwoFactorSecret = ""
	a.BackupCodes = nil

	return nil
}

func (f *fakeAccountRepo) ConsumeBackupCode(_ context.Context, role model.Role, id, codeHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != role {
		return repository.ErrNotFound
	}
	for i, hash := range a.BackupCodes {
		if hash == codeHash {
			a.BackupCodes = append(a.BackupCodes[:i], a.BackupCodes[i+1:]...)
			return nil
		}
	}

	return repository.ErrNotFound
}

// mustGet returns the stored account, bypassing the repository interface, so
// tests can assert on persisted state.
func (f *fakeAccountRepo) mustGet(t *testing.T, id string) *model.Account {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	require.True(t, ok, "account %s not in store", id)

	return cloneAccount(a)
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditor) Record(entry model.AuditLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	f.entries = append(f.entries, entry)
}

func (f *fakeAuditor) actions() []model.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	actions := make([]model.AuditAction, len(f.entries))
	for i, e := range f.entries {
		actions[i] = e.Action
	}
	return actions
}

func (f *fakeAuditor) has(action model.AuditAction) bool {
	for _, a := range f.actions() {
		if a == action {
			return true
		}
	}
	return false
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByUser(_ context.Context, userID string, limit int64) ([]model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 {
		limit = repository.DefaultAuditLogLimit
	}

	var out []model.AuditLog
	for i := len(f.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if f.entries[i].UserID.Hex() == userID {
			out = append(out, f.entries[i])
		}
	}

	return out, nil
}

type fakeSender struct {
	mu     sync.Mutex
	emails []mailer.Email
}

func (f *fakeSender) Send(email mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
	return nil
}

func (f *fakeSender) sent() []mailer.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Email(nil), f.emails...)
}

// --- environment ---

type testEnv struct {
	accounts  *fakeAccountRepo
	audits    *fakeAuditor
	auditRepo *fakeAuditRepo
	emails    *fakeSender

	cfg        *config.Config
	jwtAuth    auth.JWTAuthenticator
	otpService otp.Service

	auth      AuthUsecase
	reset     PasswordResetUsecase
	profile   ProfileUsecase
	twoFactor TwoFactorUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AppURL: "http://localhost:3000",
		Token: config.TokenConfig{
			Secret:                     "test-secret",
			Issuer:                     "user-management-api-test",
			SessionTokenExpiresIn:      time.Hour,
			EmailVerificationExpiresIn: 24 * time.Hour,
			PasswordResetExpiresIn:     30 * time.Minute,
		},
		TwoFactorIssuer: "User Management API Test",
	}

	env := &testEnv{
		accounts:  newFakeAccountRepo(),
		audits:    &fakeAuditor{},
		auditRepo: &fakeAuditRepo{},
		emails:    &fakeSender{},
		cfg:       cfg,
		jwtAuth: auth.NewJWTAuthenticator(
			cfg.Token.Secret,
			cfg.Token.Issuer,
			cfg.Token.Issuer,
			cfg.Token.SessionTokenExpiresIn,
		),
		otpService: otp.NewService(cfg.TwoFactorIssuer),
	}

	env.auth = NewAuthUsecase(env.accounts, env.jwtAuth, env.otpService, env.emails, env.audits, cfg)
	env.reset = NewPasswordResetUsecase(env.accounts, env.emails, env.audits, cfg)
	env.profile = NewProfileUsecase(env.accounts, env.auditRepo, env.audits)
	env.twoFactor = NewTwoFactorUsecase(env.accounts, env.otpService, env.audits)

	return env
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

// lastEmailToken pulls the opaque token out of the most recent email body.
func (env *testEnv) lastEmailToken(t *testing.T) string {
	t.Helper()

	emails := env.emails.sent()
	require.NotEmpty(t, emails, "expected at least one email")

	match := tokenPattern.FindStringSubmatch(emails[len(emails)-1].Body)
	require.Len(t, match, 2, "no token link in email body")

	return match[1]
}

// registerVerified registers an account and walks it through email
// verification.
func (env *testEnv) registerVerified(t *testing.T, name, email, password string, role model.Role) *model.Account {
	t.Helper()

	account, err := env.auth.Register(context.Background(), RegisterParams{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	}, Meta{})
	require.NoError(t, err)

	verified, err := env.auth.VerifyEmail(context.Background(), env.lastEmailToken(t), Meta{})
	require.NoError(t, err)
	require.Equal(t, account.ID, verified.ID)

	return verified
}
