package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/enums"
)

// OutboxEvent is an append-only event written in the same transaction
// as the state change it announces. The topic column carries the
// logical channel the publisher stamps onto the Pub/Sub message.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Topic         string                    `gorm:"column:topic;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime;index"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}

// OutboxDeadLetter parks events that exhausted their publish attempts.
type OutboxDeadLetter struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID       `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	EventType   string          `gorm:"column:event_type;not null"`
	Topic       string          `gorm:"column:topic;not null"`
	Payload     json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Reason      string          `gorm:"column:reason;not null"`
	Attempts    int             `gorm:"column:attempts;not null"`
	FirstSeenAt time.Time       `gorm:"column:first_seen_at;not null"`
	ParkedAt    time.Time       `gorm:"column:parked_at;autoCreateTime"`
}
