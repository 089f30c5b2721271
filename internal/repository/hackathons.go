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

// HackathonRepository stores hackathons in MongoDB.
type HackathonRepository struct {
	collection *mongo.Collection
}

// NewHackathonRepository creates a new hackathon repository.
func NewHackathonRepository(db *MongoDB) *HackathonRepository {
	return &HackathonRepository{collection: db.Hackathons}
}

func hackathonQuery(filter model.HackathonFilter) bson.M {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.Tag != "" {
		q["tags"] = filter.Tag
	}
	return q
}

// List returns one page of hackathons ordered by start date.
func (r *HackathonRepository) List(ctx context.Context, filter model.HackathonFilter) (model.Page[model.Hackathon], error) {
	filter = filter.Normalize()
	q := hackathonQuery(filter)

	total, err := r.collection.CountDocuments(ctx, q)
	if err != nil {
		return model.Page[model.Hackathon]{}, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, q, findOptions)
	if err != nil {
		return model.Page[model.Hackathon]{}, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	items := make([]model.Hackathon, 0, filter.Limit)
	if err := cursor.All(ctx, &items); err != nil {
		return model.Page[model.Hackathon]{}, err
	}

	return model.Page[model.Hackathon]{
		Items: items,
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	}, nil
}

// FindByID returns the hackathon with id or ErrNotFound.
func (r *HackathonRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Hackathon, error) {
	var h model.Hackathon
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		return nil, translateError(err)
	}
	return &h, nil
}

// Create inserts h, assigning its ID and timestamps. A taken slug yields ErrDuplicate.
func (r *HackathonRepository) Create(ctx context.Context, h *model.Hackathon) error {
	now := time.Now().UTC()
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	h.CreatedAt = now
	h.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, h)
	return translateError(err)
}

// UpdateStatus sets the status and returns the updated document.
func (r *HackathonRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.Status) (*model.Hackathon, error) {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var h model.Hackathon
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&h); err != nil {
		return nil, translateError(err)
	}
	return &h, nil
}
