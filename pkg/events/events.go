// Package events defines the telemetry events emitted by the publish
// pipeline.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every publish lifecycle event.
const Topic = "flowkit.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FlowPublishedEvent       EventType = "flow.published"
	FlowUnpublishedEvent     EventType = "flow.unpublished"
	FlowRiskUpdatedEvent     EventType = "flow.risk.updated"
	FileUploadPublishedEvent EventType = "flow.file_upload.published"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	FlowID      string         `json:"flow_id"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a base event with a fresh id and timestamp.
func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
	}
}

// FlowPublished is emitted after a snapshot write durably committed.
type FlowPublished struct {
	BaseEvent

	Name           string `json:"name"`
	IsFirstPublish bool   `json:"is_first_publish,omitempty"`
}

func (e FlowPublished) GetType() EventType {
	return FlowPublishedEvent
}

// FlowUnpublished is emitted when a snapshot is deleted, either explicitly
// or by a risk-gate rollback.
type FlowUnpublished struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (e FlowUnpublished) GetType() EventType {
	return FlowUnpublishedEvent
}

// FlowRiskUpdated is emitted when a recomputed risk score is persisted.
type FlowRiskUpdated struct {
	BaseEvent

	PreviousRiskLevel int `json:"previous_risk_level"`
	RiskLevel         int `json:"risk_level"`
}

func (e FlowRiskUpdated) GetType() EventType {
	return FlowRiskUpdatedEvent
}

// FileUploadPublished is emitted alongside FlowPublished when the published
// content contains file-upload input blocks.
type FileUploadPublished struct {
	BaseEvent
}

func (e FileUploadPublished) GetType() EventType {
	return FileUploadPublishedEvent
}
