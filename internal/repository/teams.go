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

// TeamRepository stores teams in MongoDB.
type TeamRepository struct {
	collection *mongo.Collection
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *MongoDB) *TeamRepository {
	return &TeamRepository{collection: db.Teams}
}

// ListByHackathon returns the teams of one hackathon in registration order.
// With lookingOnly set, only teams looking for members are returned.
func (r *TeamRepository) ListByHackathon(ctx context.Context, hackathonID primitive.ObjectID, lookingOnly bool) ([]model.Team, error) {
	q := bson.M{"hackathon_id": hackathonID}
	if lookingOnly {
		q["looking_for_members"] = true
	}

	cursor, err := r.collection.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	teams := []model.Team{}
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Create inserts team. A name already used in the same hackathon yields ErrDuplicate.
func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	team.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, team)
	return translateError(err)
}
