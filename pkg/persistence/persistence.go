// Package persistence provides the data storage abstraction for flows,
// workspaces and published snapshots.
package persistence

import (
	"context"

	"github.com/dukex/flowkit/pkg/models"
)

// FlowContext is the joined read the publish pipeline starts from: the draft
// flow, its owning workspace and the current published snapshot, if any.
type FlowContext struct {
	Flow      *models.Flow
	Workspace *models.Workspace
	Published *models.PublishedFlow // nil when the flow was never published
}

// HasPublished reports whether a snapshot currently exists.
func (c *FlowContext) HasPublished() bool {
	return c.Published != nil
}

type Persistence interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error) // nil, nil when absent
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error

	// UpdateFlowRiskLevel persists a recomputed risk score without touching
	// any other draft field.
	UpdateFlowRiskLevel(ctx context.Context, id string, riskLevel int) error

	// FlowContextByID loads the draft with its workspace and snapshot in one
	// logical read. Returns nil, nil when the flow is absent.
	FlowContextByID(ctx context.Context, id string) (*FlowContext, error)

	WorkspaceByID(ctx context.Context, id string) (*models.Workspace, error) // nil, nil when absent
	SaveWorkspace(ctx context.Context, workspace *models.Workspace) error

	PublishedFlowByFlowID(ctx context.Context, flowID string) (*models.PublishedFlow, error) // nil, nil when absent

	// SavePublishedFlow creates the snapshot on first publish and replaces
	// it wholesale afterwards, as one atomic operation keyed on FlowID.
	SavePublishedFlow(ctx context.Context, published *models.PublishedFlow) error

	// DeletePublishedFlow removes the snapshot. Deleting an absent snapshot
	// is a no-op.
	DeletePublishedFlow(ctx context.Context, flowID string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
