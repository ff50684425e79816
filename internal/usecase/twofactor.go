package usecase

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/otp"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
	"github.com/vasapolrittideah/user-management-api/internal/security"
)

// TwoFactorUsecase manages the two-factor enrollment lifecycle:
// disabled -> pending (secret stored) -> enabled (first code confirmed).
type TwoFactorUsecase interface {
	Enable(ctx context.Context, role model.Role, id, password string) (*TwoFactorSetup, error)
	Verify(ctx context.Context, role model.Role, id, code string, meta Meta) error
	Disable(ctx context.Context, role model.Role, id, password string, meta Meta) error
}

// TwoFactorSetup carries the plaintext enrollment artifacts. This is the only
// time the secret and backup codes are ever exposed; the store keeps only the
// secret and the code hashes.
type TwoFactorSetup struct {
	Secret      string
	SetupURI    string
	QRCode      string
	BackupCodes []string
}

type twoFactorUsecase struct {
	accountRepo repository.AccountRepository
	otpService  otp.Service
	auditor     Auditor
}

// NewTwoFactorUsecase creates a new TwoFactorUsecase instance.
func NewTwoFactorUsecase(
	accountRepo repository.AccountRepository,
	otpService otp.Service,
	auditor Auditor,
) TwoFactorUsecase {
	return &twoFactorUsecase{
		accountRepo: accountRepo,
		otpService:  otpService,
		auditor:     auditor,
	}
}

func (u *twoFactorUsecase) Enable(
	ctx context.Context,
	role model.Role,
	id, password string,
) (*TwoFactorSetup, error) {
	account, err := u.requirePassword(ctx, role, id, password)
	if err != nil {
		return nil, err
	}

	if account.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	enrollment, err := u.otpService.Enroll(account.Email)
	if err != nil {
		return nil, err
	}

	backupCodes, err := u.otpService.GenerateBackupCodes(otp.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	hashedCodes := make([]string, len(backupCodes))
	for i, code := range backupCodes {
		if hashedCodes[i], err = security.HashPassword(code); err != nil {
			return nil, err
		}
	}

	// Secret stored now, but two-factor stays off until the user confirms a
	// first code.
	if err := u.accountRepo.SetTwoFactorEnrollment(
		ctx,
		role,
		id,
		enrollment.Secret,
		hashedCodes,
	); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, err
	}

	return &TwoFactorSetup{
		Secret:      enrollment.Secret,
		SetupURI:    enrollment.SetupURI,
		QRCode:      enrollment.QRCode,
		BackupCodes: backupCodes,
	}, nil
}

func (u *twoFactorUsecase) Verify(ctx context.Context, role model.Role, id, code string, meta Meta) error {
	account, err := u.accountRepo.GetAccount(ctx, role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}

		return err
	}

	if account.TwoFactorSecret == "" {
		return ErrTwoFactorNotPending
	}

	if !u.otpService.VerifyCode(code, account.TwoFactorSecret) {
		return ErrInvalidOTP
	}

	if err := u.accountRepo.EnableTwoFactor(ctx, role, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTwoFactorNotPending
		}

		return err
	}

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionTwoFactorEnabled,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

func (u *twoFactorUsecase) Disable(ctx context.Context, role model.Role, id, password string, meta Meta) error {
	account, err := u.requirePassword(ctx, role, id, password)
	if err != nil {
		return err
	}

	if !account.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	if err := u.accountRepo.DisableTwoFactor(ctx, role, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}

		return err
	}

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionTwoFactorDisabled,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

func (u *twoFactorUsecase) requirePassword(
	ctx context.Context,
	role model.Role,
	id, password string,
) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(password, account.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrIncorrectPassword
	}

	return account, nil
}
