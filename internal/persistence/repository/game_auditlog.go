package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/Vatanesh/sbg-skribbl/internal/persistence/db"
)

type gameAuditLogRepository struct {
	db *mongo.Database
}

func NewGameAuditLogRepository(db *mongo.Database) domain.GameAuditRepository {
	return &gameAuditLogRepository{
		db: db,
	}
}

func (r *gameAuditLogRepository) Log(ctx context.Context, entry *domain.GameAuditLog) error {
	collection := r.db.Collection(db.GameAuditLogsCollection)

	_, err := collection.InsertOne(ctx, entry)
	return err
}

func (r *gameAuditLogRepository) GetByRoomID(ctx context.Context, roomID string, limit int) ([]domain.GameAuditLog, error) {
	collection := r.db.Collection(db.GameAuditLogsCollection)

	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.GameAuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *gameAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.GameAuditLogsCollection)

	filter := bson.M{
		"timestamp": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *gameAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.GameAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7776000), // 90 days TTL
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
