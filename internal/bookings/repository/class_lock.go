package repository

import (
	"context"
	"time"

	"classbook/pkg/config"
	"classbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Class_locks"

// ClassLockRepository manages per-class advisory locks. A lock document's
// _id is the class id, so the collection's unique _id index is the mutex:
// a second insert for the same class fails with a duplicate key error.
// The TTL index on expires_at reaps locks orphaned by a crashed process.
type ClassLockRepository interface {
	Create(ctx context.Context, lock *model.ClassLock) error
	Delete(ctx context.Context, classID string) error
}

type mongoClassLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewClassLockRepository(cfg *config.Config) ClassLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClassLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Create inserts the lock. A duplicate key error means another request
// holds the lock; callers retry until it frees up.
func (r *mongoClassLockRepository) Create(ctx context.Context, lock *model.ClassLock) error {
	now := time.Now().UTC()
	lock.CreatedAt = now
	lock.ExpiresAt = now.Add(r.cfg.CapacityLockTTL)

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoClassLockRepository) Delete(ctx context.Context, classID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": classID})
	return err
}
