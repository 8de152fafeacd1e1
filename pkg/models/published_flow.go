package models

import "time"

// PublishedFlow is the immutable-until-replaced snapshot of a flow's
// publish-relevant fields, served to the conversational runtime. At most one
// exists per flow: the first publish creates it, later publishes overwrite it
// wholesale and a failed risk gate deletes it.
type PublishedFlow struct {
	ID        string        `json:"id"      validate:"required"`
	FlowID    string        `json:"flow_id" validate:"required"`
	Version   int           `json:"version" validate:"required,min=1"` // Always equals the draft version at publish time
	Groups    []*Group      `json:"groups"`
	Edges     []*Edge       `json:"edges"`
	Variables []*Variable   `json:"variables"`
	Events    []*StartEvent `json:"events,omitempty"`
	Settings  Settings      `json:"settings"`
	Theme     Theme         `json:"theme"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
