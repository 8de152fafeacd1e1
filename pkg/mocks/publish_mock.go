package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/radar"
)

// MockScorer is a mock implementation of radar.Scorer.
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ComputeRiskLevel(flow *models.Flow, opts radar.Options) int {
	args := m.Called(flow, opts)

	return args.Int(0)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)

	return args.Error(0)
}

// MockAuthorizer is a mock implementation of publish.Authorizer.
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) IsWriteForbidden(flow *models.Flow, workspace *models.Workspace, user *models.User) bool {
	args := m.Called(flow, workspace, user)

	return args.Bool(0)
}
