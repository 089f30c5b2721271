package repository

import (
	"context"
	"time"

	"github.com/guttosm/hackathon-service/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepository stores audit events in MongoDB.
type AuditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *MongoDB) *AuditRepository {
	return &AuditRepository{collection: db.Audit}
}

func prepareEvent(e *model.AuditEvent) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}

// Create inserts a single audit event.
func (r *AuditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	prepareEvent(event)
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// CreateMany inserts events in one round trip.
func (r *AuditRepository) CreateMany(ctx context.Context, events []*model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, len(events))
	for i, e := range events {
		prepareEvent(e)
		docs[i] = e
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// List returns the most recent events, newest first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	events := []model.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
