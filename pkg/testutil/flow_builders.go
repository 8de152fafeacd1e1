// Package testutil provides builders for flow fixtures used across test
// suites.
package testutil

import (
	"github.com/dukex/flowkit/pkg/models"
)

// FlowBuilder assembles flow fixtures with sane defaults: a version 6 flow
// with one start event wired to one group holding a single text input.
type FlowBuilder struct {
	flow *models.Flow
}

func NewFlowBuilder(id string) *FlowBuilder {
	return &FlowBuilder{
		flow: &models.Flow{
			ID:          id,
			WorkspaceID: "ws-1",
			Name:        "Test flow",
			Version:     6,
			Groups: []*models.Group{
				{
					ID:    "group-1",
					Title: "Welcome",
					Blocks: []*models.Block{
						{ID: "block-1", Type: models.BlockTypeTextInput},
					},
				},
			},
			Edges: []*models.Edge{
				{
					ID:   "edge-1",
					From: models.EdgeEndpoint{EventID: "event-1"},
					To:   models.EdgeEndpoint{GroupID: "group-1"},
				},
			},
			Events: []*models.StartEvent{
				{ID: "event-1", Type: models.StartEventType},
			},
		},
	}
}

func (b *FlowBuilder) WithWorkspace(workspaceID string) *FlowBuilder {
	b.flow.WorkspaceID = workspaceID

	return b
}

func (b *FlowBuilder) WithName(name string) *FlowBuilder {
	b.flow.Name = name

	return b
}

func (b *FlowBuilder) WithVersion(version int) *FlowBuilder {
	b.flow.Version = version
	if version < 6 {
		b.flow.Events = nil
		b.flow.Edges = []*models.Edge{
			{
				ID:   "edge-1",
				From: models.EdgeEndpoint{GroupID: "group-1", BlockID: "block-1"},
				To:   models.EdgeEndpoint{GroupID: "group-1"},
			},
		}
	}

	return b
}

func (b *FlowBuilder) WithRiskLevel(riskLevel int) *FlowBuilder {
	b.flow.RiskLevel = riskLevel

	return b
}

func (b *FlowBuilder) WithGroups(groups ...*models.Group) *FlowBuilder {
	b.flow.Groups = groups

	return b
}

func (b *FlowBuilder) WithEdges(edges ...*models.Edge) *FlowBuilder {
	b.flow.Edges = edges

	return b
}

func (b *FlowBuilder) WithEvents(events ...*models.StartEvent) *FlowBuilder {
	b.flow.Events = events

	return b
}

func (b *FlowBuilder) WithVariables(variables ...*models.Variable) *FlowBuilder {
	b.flow.Variables = variables

	return b
}

// WithFileUploadBlock appends a group containing a file-upload input.
func (b *FlowBuilder) WithFileUploadBlock() *FlowBuilder {
	b.flow.Groups = append(b.flow.Groups, &models.Group{
		ID:    "group-upload",
		Title: "Upload",
		Blocks: []*models.Block{
			{ID: "block-upload", Type: models.BlockTypeFileInput},
		},
	})

	return b
}

func (b *FlowBuilder) Build() *models.Flow {
	return b.flow
}

// WorkspaceBuilder assembles workspace fixtures. The default workspace is an
// unverified free-plan workspace with one member.
type WorkspaceBuilder struct {
	workspace *models.Workspace
}

func NewWorkspaceBuilder(id string) *WorkspaceBuilder {
	return &WorkspaceBuilder{
		workspace: &models.Workspace{
			ID:   id,
			Name: "Test workspace",
			Plan: models.PlanFree,
			Members: []models.WorkspaceMember{
				{UserID: "user-1", Role: models.WorkspaceRoleAdmin},
			},
		},
	}
}

func (b *WorkspaceBuilder) WithPlan(plan models.Plan) *WorkspaceBuilder {
	b.workspace.Plan = plan

	return b
}

func (b *WorkspaceBuilder) Verified() *WorkspaceBuilder {
	b.workspace.IsVerified = true

	return b
}

func (b *WorkspaceBuilder) Suspended() *WorkspaceBuilder {
	b.workspace.IsSuspended = true

	return b
}

func (b *WorkspaceBuilder) WithMember(userID string, role models.WorkspaceRole) *WorkspaceBuilder {
	b.workspace.Members = append(b.workspace.Members, models.WorkspaceMember{UserID: userID, Role: role})

	return b
}

func (b *WorkspaceBuilder) Build() *models.Workspace {
	return b.workspace
}
