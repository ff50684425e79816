package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/user-management-api/internal/model"
)

// AccountRepository defines the interface for account persistence. Both
// account variants live in one collection; operations that act on a known
// account take (role, id), token lookups span both roles because the caller
// of a token link does not know which variant it belongs to.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, role model.Role, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, role model.Role, email string) (*model.Account, error)
	GetAccountByEmailAnyRole(ctx context.Context, email string) (*model.Account, error)
	UpdateAccount(ctx context.Context, role model.Role, id string, params UpdateAccountParams) (*model.Account, error)
	DeleteAccount(ctx context.Context, role model.Role, id string) (*model.Account, error)

	UpdateLastLogin(ctx context.Context, role model.Role, id string) error

	// ConsumeEmailVerificationToken atomically marks the matching account as
	// verified and clears the token/expiry pair. A stale or expired token
	// yields ErrNotFound, so two concurrent presentations cannot both win.
	ConsumeEmailVerificationToken(ctx context.Context, tokenHash string) (*model.Account, error)

	SetPasswordResetToken(ctx context.Context, role model.Role, id, tokenHash string, expiresAt time.Time) error

	// ConsumePasswordResetToken atomically replaces the password hash and
	// clears the token/expiry pair, conditional on the token still matching.
	ConsumePasswordResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*model.Account, error)

	// SetTwoFactorEnrollment stores a pending secret and hashed backup codes
	// without enabling two-factor.
	SetTwoFactorEnrollment(ctx context.Context, role model.Role, id, secret string, hashedBackupCodes []string) error

	// EnableTwoFactor flips two_factor_enabled, conditional on a secret being
	// present so the enabled-implies-secret invariant holds.
	EnableTwoFactor(ctx context.Context, role model.Role, id string) error

	DisableTwoFactor(ctx context.Context, role model.Role, id string) error

	// ConsumeBackupCode removes the matched hash from the stored set,
	// conditional on it still being present. A lost race yields ErrNotFound.
	ConsumeBackupCode(ctx context.Context, role model.Role, id, codeHash string) error
}

// UpdateAccountParams defines the optional parameters for updating an
// account. Only the fields that are not nil will be updated.
type UpdateAccountParams struct {
	Name            *string
	Email           *string
	PasswordHash    *string
	IsEmailVerified *bool
}

const accountCollection = "accounts"

type accountMongoRepository struct {
	db *mongo.Database
}

// NewAccountMongoRepository creates the accounts repository and ensures its
// indexes. The unique {role, email} index enforces the uniqueness invariant
// at the storage layer.
func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email_verification_token", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "password_reset_token", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db}
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	result, err := r.db.Collection(accountCollection).InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}

		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		account.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, role model.Role, id string) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID, "role": role})
}

func (r *accountMongoRepository) GetAccountByEmail(
	ctx context.Context,
	role model.Role,
	email string,
) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"role": role, "email": email})
}

func (r *accountMongoRepository) GetAccountByEmailAnyRole(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountMongoRepository) UpdateAccount(
	ctx context.Context,
	role model.Role,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	// Build update query
	updateMap := bson.M{}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}
	if params.IsEmailVerified != nil {
		updateMap["is_email_verified"] = *params.IsEmailVerified
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no account fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "role": role},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeAccount(result)
}

func (r *accountMongoRepository) DeleteAccount(
	ctx context.Context,
	role model.Role,
	id string,
) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	result := r.db.Collection(accountCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID, "role": role})

	return decodeAccount(result)
}

func (r *accountMongoRepository) UpdateLastLogin(ctx context.Context, role model.Role, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	_, err = r.db.Collection(accountCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID, "role": role},
		bson.M{"$set": bson.M{"last_login": time.Now(), "updated_at": time.Now()}},
	)

	return err
}

func (r *accountMongoRepository) ConsumeEmailVerificationToken(
	ctx context.Context,
	tokenHash string,
) (*model.Account, error) {
	filter := bson.M{
		"email_verification_token":   tokenHash,
		"email_verification_expires": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set": bson.M{
			"is_email_verified": true,
			"updated_at":        time.Now(),
		},
		"$unset": bson.M{
			"email_verification_token":   "",
			"email_verification_expires": "",
		},
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeAccount(result)
}

func (r *accountMongoRepository) SetPasswordResetToken(
	ctx context.Context,
	role model.Role,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"password_reset_token":   tokenHash,
			"password_reset_expires": expiresAt,
			"updated_at":             time.Now(),
		},
	}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, bson.M{"_id": objectID, "role": role}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *accountMongoRepository) ConsumePasswordResetToken(
	ctx context.Context,
	tokenHash, newPasswordHash string,
) (*model.Account, error) {
	filter := bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash": newPasswordHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"password_reset_token":   "",
			"password_reset_expires": "",
		},
	}

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeAccount(result)
}

func (r *accountMongoRepository) SetTwoFactorEnrollment(
	ctx context.Context,
	role model.Role,
	id, secret string,
	hashedBackupCodes []string,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"two_factor_secret": secret,
			"backup_codes":      hashedBackupCodes,
			"updated_at":        time.Now(),
		},
	}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, bson.M{"_id": objectID, "role": role}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *accountMongoRepository) EnableTwoFactor(ctx context.Context, role model.Role, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	// Conditional on a pending secret: enabled without a secret must be
	// unrepresentable.
	filter := bson.M{
		"_id":               objectID,
		"role":              role,
		"two_factor_secret": bson.M{"$exists": true, "$ne": ""},
	}
	update := bson.M{
		"$set": bson.M{
			"two_factor_enabled": true,
			"updated_at":         time.Now(),
		},
	}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *accountMongoRepository) DisableTwoFactor(ctx context.Context, role model.Role, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"two_factor_enabled": false,
			"updated_at":         time.Now(),
		},
		"$unset": bson.M{
			"two_factor_secret": "",
			"backup_codes":      "",
		},
	}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, bson.M{"_id": objectID, "role": role}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *accountMongoRepository) ConsumeBackupCode(ctx context.Context, role model.Role, id, codeHash string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	filter := bson.M{
		"_id":          objectID,
		"role":         role,
		"backup_codes": codeHash,
	}
	update := bson.M{
		"$pull": bson.M{"backup_codes": codeHash},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.db.Collection(accountCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *accountMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Account, error) {
	result := r.db.Collection(accountCollection).FindOne(ctx, filter)

	return decodeAccount(result)
}

func decodeAccount(result *mongo.SingleResult) (*model.Account, error) {
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}
