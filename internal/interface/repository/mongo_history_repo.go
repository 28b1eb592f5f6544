package repository

import (
	"context"
	"fmt"

	"ecovision-etl/internal/domain/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoExecutionHistoryRepository implements ExecutionHistoryRepository on MongoDB
type MongoExecutionHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoExecutionHistoryRepository creates a new MongoDB history repository
func NewMongoExecutionHistoryRepository(db *mongo.Database) *MongoExecutionHistoryRepository {
	collection := db.Collection("executionHistory")

	ctx := context.Background()

	// Index on startTime for ordering and trimming
	startTimeIndex := mongo.IndexModel{
		Keys: bson.M{"startTime": 1},
	}

	// Index on executionId for lookups
	executionIDIndex := mongo.IndexModel{
		Keys: bson.M{"executionId": 1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		startTimeIndex,
		executionIDIndex,
	})

	return &MongoExecutionHistoryRepository{
		collection: collection,
	}
}

// Append inserts record and deletes everything older than the newest keep entries
func (r *MongoExecutionHistoryRepository) Append(ctx context.Context, record *entity.ExecutionRecord, keep int) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}
	if keep <= 0 {
		return nil
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count execution records: %w", err)
	}
	excess := total - int64(keep)
	if excess <= 0 {
		return nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "startTime", Value: 1}, {Key: "_id", Value: 1}}).
			SetLimit(excess).
			SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return fmt.Errorf("failed to find old execution records: %w", err)
	}
	defer cursor.Close(ctx)

	var stale []struct {
		ID interface{} `bson:"_id"`
	}
	if err := cursor.All(ctx, &stale); err != nil {
		return fmt.Errorf("failed to decode old execution records: %w", err)
	}

	ids := make([]interface{}, 0, len(stale))
	for _, s := range stale {
		ids = append(ids, s.ID)
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to trim execution history: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first
func (r *MongoExecutionHistoryRepository) Recent(ctx context.Context, limit int) ([]*entity.ExecutionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find execution records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*entity.ExecutionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode execution records: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
