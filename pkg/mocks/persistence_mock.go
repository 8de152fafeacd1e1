// Package mocks provides testify mocks for the pipeline's interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	args := m.Called(ctx)

	flows, _ := args.Get(0).([]*models.Flow)

	return flows, args.Error(1)
}

func (m *MockPersistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	args := m.Called(ctx, id)

	flow, _ := args.Get(0).(*models.Flow)

	return flow, args.Error(1)
}

func (m *MockPersistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockPersistence) DeleteFlow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) UpdateFlowRiskLevel(ctx context.Context, id string, riskLevel int) error {
	args := m.Called(ctx, id, riskLevel)

	return args.Error(0)
}

func (m *MockPersistence) FlowContextByID(ctx context.Context, id string) (*persistence.FlowContext, error) {
	args := m.Called(ctx, id)

	fc, _ := args.Get(0).(*persistence.FlowContext)

	return fc, args.Error(1)
}

func (m *MockPersistence) WorkspaceByID(ctx context.Context, id string) (*models.Workspace, error) {
	args := m.Called(ctx, id)

	workspace, _ := args.Get(0).(*models.Workspace)

	return workspace, args.Error(1)
}

func (m *MockPersistence) SaveWorkspace(ctx context.Context, workspace *models.Workspace) error {
	args := m.Called(ctx, workspace)

	return args.Error(0)
}

func (m *MockPersistence) PublishedFlowByFlowID(ctx context.Context, flowID string) (*models.PublishedFlow, error) {
	args := m.Called(ctx, flowID)

	published, _ := args.Get(0).(*models.PublishedFlow)

	return published, args.Error(1)
}

func (m *MockPersistence) SavePublishedFlow(ctx context.Context, published *models.PublishedFlow) error {
	args := m.Called(ctx, published)

	return args.Error(0)
}

func (m *MockPersistence) DeletePublishedFlow(ctx context.Context, flowID string) error {
	args := m.Called(ctx, flowID)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
