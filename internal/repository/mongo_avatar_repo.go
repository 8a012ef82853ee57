package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weiawesome/user-avatar-service/internal/domain"
)

// avatarDocument is the stored shape of an avatar record.
type avatarDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Hash      string             `bson:"hash"`
	FilePath  string             `bson:"filePath"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *avatarDocument) toDomain() *domain.AvatarRecord {
	return &domain.AvatarRecord{
		UserID:      d.UserID,
		ContentHash: d.Hash,
		BlobPath:    d.FilePath,
		CreatedAt:   d.CreatedAt,
	}
}

// MongoAvatarRepository implements AvatarRepository on a MongoDB collection
// with a unique index on userId.
type MongoAvatarRepository struct {
	coll *mongo.Collection
}

// NewMongoAvatarRepository wraps an existing collection.
// Call EnsureIndexes once at startup.
func NewMongoAvatarRepository(coll *mongo.Collection) *MongoAvatarRepository {
	return &MongoAvatarRepository{coll: coll}
}

// EnsureIndexes creates the unique userId index if missing.
func (r *MongoAvatarRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userId_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create avatar index: %w", err)
	}
	return nil
}

// Find retrieves the avatar record for a user.
func (r *MongoAvatarRepository) Find(ctx context.Context, userID string) (*domain.AvatarRecord, error) {
	if err := validateKey(userID); err != nil {
		return nil, err
	}

	var doc avatarDocument
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find avatar: %w", err)
	}
	return doc.toDomain(), nil
}

// Insert creates the avatar record.
func (r *MongoAvatarRepository) Insert(ctx context.Context, record *domain.AvatarRecord) error {
	if err := validateKey(record.UserID); err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	_, err := r.coll.InsertOne(ctx, avatarDocument{
		UserID:    record.UserID,
		Hash:      record.ContentHash,
		FilePath:  record.BlobPath,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert avatar: %w", err)
	}
	return nil
}

// Delete removes the avatar record for a user.
func (r *MongoAvatarRepository) Delete(ctx context.Context, userID string) error {
	if err := validateKey(userID); err != nil {
		return err
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
