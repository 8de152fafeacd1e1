// Package web provides the HTTP API for flow management and publishing.
package web

import "github.com/dukex/flowkit/pkg/models"

// SaveFlowRequest is the request body for creating or replacing a flow's
// editable content.
type SaveFlowRequest struct {
	WorkspaceID string               `json:"workspace_id" validate:"required"`
	Name        string               `json:"name"         validate:"required,min=1"`
	Version     int                  `json:"version"      validate:"required,min=1"`
	Groups      []*models.Group      `json:"groups"`
	Edges       []*models.Edge       `json:"edges"`
	Variables   []*models.Variable   `json:"variables"`
	Events      []*models.StartEvent `json:"events,omitempty"`
	Settings    models.Settings      `json:"settings"`
	Theme       models.Theme         `json:"theme"`
}

// ValidateCredentialsRequest carries a credentials document to check against
// a forge block's auth schema.
type ValidateCredentialsRequest struct {
	Credentials map[string]any `json:"credentials" validate:"required"`
}

// PublishResponse acknowledges a successful publish or unpublish.
type PublishResponse struct {
	FlowID string `json:"flow_id"`
	Status string `json:"status"`
}
