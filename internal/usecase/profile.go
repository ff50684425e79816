package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/user-management-api/internal/model"
	"github.com/vasapolrittideah/user-management-api/internal/repository"
	"github.com/vasapolrittideah/user-management-api/internal/security"
)

// ProfileUsecase defines profile mutation and account deletion.
type ProfileUsecase interface {
	UpdateProfile(
		ctx context.Context,
		role model.Role,
		id string,
		params UpdateProfileParams,
		meta Meta,
	) (*model.Account, error)
	ChangePassword(ctx context.Context, role model.Role, id, currentPassword, newPassword string, meta Meta) error
	DeleteAccount(ctx context.Context, role model.Role, id, password string, meta Meta) error
	ActivityLogs(ctx context.Context, id string, limit int64) ([]model.AuditLog, error)
}

// UpdateProfileParams defines the optional profile fields. Only the fields
// that are not nil will be updated.
type UpdateProfileParams struct {
	Name  *string
	Email *string
}

type profileUsecase struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
	auditor     Auditor
}

// NewProfileUsecase creates a new ProfileUsecase instance.
func NewProfileUsecase(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	auditor Auditor,
) ProfileUsecase {
	return &profileUsecase{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		auditor:     auditor,
	}
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	role model.Role,
	id string,
	params UpdateProfileParams,
	meta Meta,
) (*model.Account, error) {
	account, err := u.accountRepo.GetAccount(ctx, role, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, err
	}

	updateParams := repository.UpdateAccountParams{Name: params.Name}
	details := bson.M{}
	if params.Name != nil {
		details["name"] = *params.Name
	}

	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		if email != account.Email {
			// Fast-path friendliness only; the unique index is what actually
			// prevents the duplicate.
			if _, err := u.accountRepo.GetAccountByEmail(ctx, role, email); err == nil {
				return nil, ErrAccountAlreadyExists
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}

			// Changing email requires re-verification.
			verified := false
			updateParams.Email = &email
			updateParams.IsEmailVerified = &verified
			details["email"] = email
		}
	}

	// Nothing changed (empty body, or the current email re-submitted): the
	// repository rejects an all-nil update, so return the account as is.
	if updateParams == (repository.UpdateAccountParams{}) {
		return account, nil
	}

	updated, err := u.accountRepo.UpdateAccount(ctx, role, id, updateParams)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrAccountAlreadyExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAccountNotFound
		default:
			return nil, err
		}
	}

	u.auditor.Record(model.AuditLog{
		UserID:    updated.ID,
		Action:    model.ActionProfileUpdated,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   details,
	})

	return updated, nil
}

func (u *profileUsecase) ChangePassword(
	ctx context.Context,
	role model.Role,
	id, currentPassword, newPassword string,
	meta Meta,
) error {
	account, err := u.requirePassword(ctx, role, id, currentPassword)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, role, id, repository.UpdateAccountParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return err
	}

	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionPasswordChanged,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

func (u *profileUsecase) DeleteAccount(ctx context.Context, role model.Role, id, password string, meta Meta) error {
	account, err := u.requirePassword(ctx, role, id, password)
	if err != nil {
		return err
	}

	// Recorded before the delete is issued; the entry references the account
	// and outlives it.
	u.auditor.Record(model.AuditLog{
		UserID:    account.ID,
		Action:    model.ActionAccountDeleted,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Details:   bson.M{"email": account.Email, "role": account.Role},
	})

	if _, err := u.accountRepo.DeleteAccount(ctx, role, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}

		return err
	}

	return nil
}

func (u *profileUsecase) ActivityLogs(ctx context.Context, id string, limit int64) ([]model.AuditLog, error) {
	return u.auditRepo.ListByUser(ctx, id, limit)
}

// requirePassword resolves the account and gates the sensitive operation on a
// fresh password check.
func (u *profileUsecase) requirePassword(
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
