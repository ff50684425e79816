package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/user-management-api/internal/model"
)

// AuditLogRepository defines the interface for the append-only audit trail.
// Entries are never mutated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.AuditLog, error)
}

// DefaultAuditLogLimit bounds ListByUser when the caller passes no limit.
const DefaultAuditLogLimit = 50

const auditLogCollection = "audit_logs"

type auditLogMongoRepository struct {
	db *mongo.Database
}

// NewAuditLogMongoRepository creates the audit log repository and ensures its
// query indexes.
func NewAuditLogMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AuditLogRepository {
	collection := db.Collection(auditLogCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create audit log indexes")
	}

	return &auditLogMongoRepository{db: db}
}

func (r *auditLogMongoRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	now := time.Now()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.Collection(auditLogCollection).InsertOne(ctx, entry)

	return err
}

func (r *auditLogMongoRepository) ListByUser(
	ctx context.Context,
	userID string,
	limit int64,
) ([]model.AuditLog, error) {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	if limit <= 0 {
		limit = DefaultAuditLogLimit
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection(auditLogCollection).Find(ctx, bson.M{"user_id": objectID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []model.AuditLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
