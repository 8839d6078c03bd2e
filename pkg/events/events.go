// Package events defines event types for thread lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/symposiumhq/symposium/pkg/models"
)

type EventType string

// Topic carries all thread lifecycle events.
const Topic = "symposium.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Thread lifecycle events.
	ThreadRequestedEvent EventType = "thread.requested"
	ThreadCompletedEvent EventType = "thread.completed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ThreadID  string         `json:"thread_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, threadID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ThreadID:  threadID,
	}
}

// ThreadRequested asks a worker to drive the thread's generation workflow.
// The thread row already exists when this event is published.
type ThreadRequested struct {
	BaseEvent

	Kind models.ThreadKind `json:"kind"`
}

func (t ThreadRequested) GetType() EventType {
	return ThreadRequestedEvent
}

// ThreadCompleted announces that a thread reached its terminal status,
// regardless of how many contributions it gathered.
type ThreadCompleted struct {
	BaseEvent

	Kind          models.ThreadKind `json:"kind"`
	Contributions int               `json:"contributions"`
	HasSynthesis  bool              `json:"has_synthesis"`
	Duration      time.Duration     `json:"duration"`
}

func (t ThreadCompleted) GetType() EventType {
	return ThreadCompletedEvent
}
