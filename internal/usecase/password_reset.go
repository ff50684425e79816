package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vasapolrittideah/user-management-api/internal/config"
	"github.com/vasapolrittideah/user-management-api/internal/mailer"
	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
	"github.com/vasapolrittideah/user-management-api/internal/security"
	"github.com/vasapolrittideah/user-management-api/internal/token"
)

// PasswordResetUsecase defines the business logic for the password reset
// flow.
type PasswordResetUsecase interface {
	// ForgotPassword initiates the reset flow. It succeeds regardless of
	// whether the email matches an account.
	ForgotPassword(ctx context.Context, email string, meta Meta) error

	// ResetPassword replaces the password proven by a valid reset token. The
	// old password is not required; the token is the proof of control.
	ResetPassword(ctx context.Context, plainToken, newPassword string, meta Meta) error
}

type passwordResetUsecase struct {
	accountRepo repository.AccountRepository
	sender      mailer.Sender
	auditor     Auditor
	cfg         *config.Config
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	accountRepo repository.AccountRepository,
	sender mailer.Sender,
	auditor Auditor,
	cfg *config.Config,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		accountRepo: accountRepo,
		sender:      sender,
		auditor:     auditor,
		cfg:         cfg,
	}
}

func (u *passwordResetUsecase) ForgotPassword(ctx context.Context, email string, meta Meta) error {
	account, err := u.accountRepo.GetAccountByEmailAnyRole(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// To prevent email enumeration, do not reveal that the email
			// does not exist.
			return nil
		}

		return err
	}

	reset, err := token.IssueOpaque(u.cfg.Token.PasswordResetExpiresIn)
	if err != nil {
		return err
	}

	if err := u.accountRepo.SetPasswordResetToken(
		ctx,
		account.Role,
		account.ID.Hex(),
		reset.Hash,
		reset.ExpiresAt,
	); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/auth/reset-password?token=%s", u.cfg.AppURL, reset.Plain)
	_ = u.sender.Send(mailer.PasswordResetEmail(account.Email, account.Name, resetURL))

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionPasswordResetRequested,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, plainToken, newPassword string, meta Meta) error {
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// The update is conditional on the token hash still matching and being
	// unexpired, so of two concurrent presentations only one can succeed.
	account, err := u.accountRepo.ConsumePasswordResetToken(ctx, token.Hash(plainToken), passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}

		return err
	}

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionPasswordResetCompleted,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}
