package models

import (
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
)

// CallSessionDoc is the Mongo lifecycle document of one call.
type CallSessionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Room      string             `bson:"room" json:"room"`
	Identity  string             `bson:"identity" json:"identity"`

	Status    string `bson:"status" json:"status"` // active|ended
	EndReason string `bson:"end_reason,omitempty" json:"end_reason,omitempty"`

	StartedAt time.Time  `bson:"started_at" json:"started_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}

// TurnDoc is one transcript entry in Mongo; (session_id, seq) is unique.
type TurnDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Seq       int                `bson:"seq" json:"seq"`
	Role      string             `bson:"role" json:"role"`
	Content   string             `bson:"content" json:"content"`
	Language  string             `bson:"language,omitempty" json:"language,omitempty"`
	ToolName  string             `bson:"tool_name,omitempty" json:"tool_name,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}

// CallRecord is the Postgres summary row written when a call ends.
type CallRecord struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID    string         `gorm:"column:session_id;type:uuid;uniqueIndex" json:"session_id"`
	Room         string         `gorm:"column:room;type:text;index" json:"room"`
	Identity     string         `gorm:"column:identity;type:text" json:"identity"`
	TurnCount    int            `gorm:"column:turn_count;type:integer" json:"turn_count"`
	ToolsInvoked pq.StringArray `gorm:"column:tools_invoked;type:text[]" json:"tools_invoked"`
	EndReason    string         `gorm:"column:end_reason;type:text" json:"end_reason"`
	StartedAt    time.Time      `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	EndedAt      time.Time      `gorm:"column:ended_at;type:timestamptz;index" json:"ended_at"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (CallRecord) TableName() string { return "call_records" }
