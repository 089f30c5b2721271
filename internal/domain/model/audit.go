package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions recorded by the service.
const (
	ActionHackathonCreated = "hackathon.created"
	ActionHackathonStatus  = "hackathon.status_changed"
	ActionTeamCreated      = "team.created"
	ActionCacheInvalidated = "cache.invalidated"
	ActionCacheRefreshed   = "cache.refreshed"
	ActionCacheCleared     = "cache.cleared"
)

// AuditEvent records a state-changing action. Use Fields for
// action-specific context.
type AuditEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Action    string             `bson:"action" json:"action"`
	Actor     string             `bson:"actor,omitempty" json:"actor,omitempty"`
	Target    string             `bson:"target,omitempty" json:"target,omitempty"`
	RequestID string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Fields    map[string]any     `bson:"fields,omitempty" json:"fields,omitempty"`
}

// WithField sets one context field, allocating Fields on first use.
func (e *AuditEvent) WithField(key string, value any) *AuditEvent {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}
