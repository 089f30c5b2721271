package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a group registered for a hackathon.
type Team struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HackathonID       primitive.ObjectID `bson:"hackathon_id" json:"hackathon_id"`
	Name              string             `bson:"name" json:"name"`
	Members           []string           `bson:"members" json:"members"`
	LookingForMembers bool               `bson:"looking_for_members" json:"looking_for_members"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// HasRoomFor reports whether the team can grow given a size cap.
// A non-positive cap means unlimited.
func (t *Team) HasRoomFor(maxSize int) bool {
	return maxSize <= 0 || len(t.Members) < maxSize
}
