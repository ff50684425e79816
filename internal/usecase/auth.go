package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/user-management-api/internal/auth"
	"github.com/vasapolrittideah/user-management-api/internal/config"
	"github.com/vasapolrittideah/user-management-api/internal/mailer"
	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/otp"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
	"github.com/vasapolrittideah/user-management-api/internal/security"
	"github.com/vasapolrittideah/user-management-api/internal/token"
)

// AuthUsecase defines the authentication operations of the lifecycle core.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams, meta Meta) (*model.Account, error)
	Login(ctx context.Context, params LoginParams, meta Meta) (*LoginResult, error)
	VerifyEmail(ctx context.Context, plainToken string, meta Meta) (*model.Account, error)
	Me(ctx context.Context, claims *auth.SessionClaims) (*model.Account, error)
	Logout(ctx context.Context, claims *auth.SessionClaims, meta Meta)
}

// RegisterParams defines the parameters for account registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// LoginParams defines the parameters for login. OTP is required only when the
// account has two-factor enabled; it accepts either a TOTP code or one of the
// single-use backup codes.
type LoginParams struct {
	Email    string
	Password string
	Role     model.Role
	OTP      string
}

// LoginResult is returned on a fully successful login.
type LoginResult struct {
	Account      *model.Account
	SessionToken string
}

type authUsecase struct {
	accountRepo repository.AccountRepository
	jwtAuth     auth.JWTAuthenticator
	otpService  otp.Service
	sender      mailer.Sender
	auditor     Auditor
	cfg         *config.Config
}

// NewAuthUsecase creates a new AuthUsecase instance.
func NewAuthUsecase(
	accountRepo repository.AccountRepository,
	jwtAuth auth.JWTAuthenticator,
	otpService otp.Service,
	sender mailer.Sender,
	auditor Auditor,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		accountRepo: accountRepo,
		jwtAuth:     jwtAuth,
		otpService:  otpService,
		sender:      sender,
		auditor:     auditor,
		cfg:         cfg,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams, meta Meta) (*model.Account, error) {
	// The payload layer already restricts the role; this guards direct
	// callers of the core.
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	verification, err := token.IssueOpaque(u.cfg.Token.EmailVerificationExpiresIn)
	if err != nil {
		return nil, err
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		Name:                     params.Name,
		Email:                    normalizeEmail(params.Email),
		PasswordHash:             passwordHash,
		Role:                     params.Role,
		EmailVerificationToken:   verification.Hash,
		EmailVerificationExpires: &verification.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAccountAlreadyExists
		}

		return nil, err
	}

	verificationURL := fmt.Sprintf("%s/api/auth/verify-email?token=%s", u.cfg.AppURL, verification.Plain)
	_ = u.sender.Send(mailer.VerificationEmail(account.Email, account.Name, verificationURL))

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionRegister,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   bson.M{"role": account.Role},
	})

	return account, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams, meta Meta) (*LoginResult, error) {
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	account, err := u.accountRepo.GetAccountByEmail(ctx, params.Role, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		u.auditor.Record(model.AuditLog{
			UserID:    account.ID,
			Action:    model.ActionFailedLoginAttempt,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			Details:   bson.M{"reason": "password mismatch"},
		})

		return nil, ErrInvalidCredentials
	}

	if !account.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	if account.TwoFactorEnabled {
		if params.OTP == "" {
			return nil, ErrOTPRequired
		}

		if err := u.verifySecondFactor(ctx, account, params.OTP); err != nil {
			return nil, err
		}
	}

	if err := u.accountRepo.UpdateLastLogin(ctx, account.Role, account.ID.Hex()); err != nil {
		return nil, err
	}

	sessionToken, err := u.jwtAuth.IssueSessionToken(account.ID.Hex(), account.Role)
	if err != nil {
		return nil, err
	}

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionLogin,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return &LoginResult{Account: account, SessionToken: sessionToken}, nil
}

// verifySecondFactor accepts a TOTP code or, failing that, one of the
// account's backup codes. A matched backup code is consumed: the conditional
// removal means a code presented twice concurrently succeeds at most once.
func (u *authUsecase) verifySecondFactor(ctx context.Context, account *model.Account, code string) error {
	if u.otpService.VerifyCode(code, account.TwoFactorSecret) {
		return nil
	}

	matched, remaining := u.otpService.VerifyBackupCode(code, account.BackupCodes)
	if !matched {
		return ErrInvalidOTP
	}

	consumed := consumedHash(account.BackupCodes, remaining)
	if err := u.accountRepo.ConsumeBackupCode(ctx, account.Role, account.ID.Hex(), consumed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}

		return err
	}

	return nil
}

// consumedHash returns the element of stored missing from remaining.
func consumedHash(stored, remaining []string) string {
	for i, hash := range stored {
		if i >= len(remaining) || remaining[i] != hash {
			return hash
		}
	}

	return ""
}

func (u *authUsecase) VerifyEmail(ctx context.Context, plainToken string, meta Meta) (*model.Account, error) {
	// The token hash is the lookup key across both account variants; the
	// link carries no role information.
	account, err := u.accountRepo.ConsumeEmailVerificationToken(ctx, token.Hash(plainToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, err
	}

	_ = u.sender.Send(mailer.WelcomeEmail(account.Email, account.Name))

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionEmailVerified,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return account, nil
}

func (u *authUsecase) Me(ctx context.Context, claims *auth.SessionClaims) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, claims.Role, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The account may have been deleted after the token was issued;
			// the token stays valid until expiry.
			return nil, ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

func (u *authUsecase) Logout(_ context.Context, claims *auth.SessionClaims, meta Meta) {
	userID, err := bson.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		return
	}

	u.auditor.Record(model.AuditLog{
		UserID:    userID,
		Action:    model.ActionLogout,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}
