package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/events"
	"github.com/dukex/flowkit/pkg/lock"
	"github.com/dukex/flowkit/pkg/mocks"
	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/schema"
	"github.com/dukex/flowkit/pkg/testutil"
)

// testStore is an in-memory persistence with call tracking for the fields
// the pipeline mutates.
type testStore struct {
	flows           map[string]*models.Flow
	workspaces      map[string]*models.Workspace
	published       map[string]*models.PublishedFlow
	riskUpdates     []int
	snapshotDeletes int
}

func newTestStore() *testStore {
	return &testStore{
		flows:      make(map[string]*models.Flow),
		workspaces: make(map[string]*models.Workspace),
		published:  make(map[string]*models.PublishedFlow),
	}
}

func (s *testStore) Flows(_ context.Context) ([]*models.Flow, error) {
	flows := make([]*models.Flow, 0, len(s.flows))
	for _, flow := range s.flows {
		flows = append(flows, flow)
	}

	return flows, nil
}

func (s *testStore) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	return s.flows[id], nil
}

func (s *testStore) SaveFlow(_ context.Context, flow *models.Flow) error {
	s.flows[flow.ID] = flow

	return nil
}

func (s *testStore) DeleteFlow(_ context.Context, id string) error {
	delete(s.flows, id)
	delete(s.published, id)

	return nil
}

func (s *testStore) UpdateFlowRiskLevel(_ context.Context, id string, riskLevel int) error {
	flow, exists := s.flows[id]
	if !exists {
		return persistence.NewFlowError("UpdateFlowRiskLevel", id, persistence.ErrFlowNotFound)
	}

	flow.RiskLevel = riskLevel
	s.riskUpdates = append(s.riskUpdates, riskLevel)

	return nil
}

func (s *testStore) FlowContextByID(_ context.Context, id string) (*persistence.FlowContext, error) {
	flow, exists := s.flows[id]
	if !exists {
		return nil, nil
	}

	return &persistence.FlowContext{
		Flow:      flow,
		Workspace: s.workspaces[flow.WorkspaceID],
		Published: s.published[id],
	}, nil
}

func (s *testStore) WorkspaceByID(_ context.Context, id string) (*models.Workspace, error) {
	return s.workspaces[id], nil
}

func (s *testStore) SaveWorkspace(_ context.Context, workspace *models.Workspace) error {
	s.workspaces[workspace.ID] = workspace

	return nil
}

func (s *testStore) PublishedFlowByFlowID(_ context.Context, flowID string) (*models.PublishedFlow, error) {
	return s.published[flowID], nil
}

func (s *testStore) SavePublishedFlow(_ context.Context, published *models.PublishedFlow) error {
	if published.ID == "" {
		published.ID = "snapshot-" + published.FlowID
	}

	copied := *published
	s.published[published.FlowID] = &copied

	return nil
}

func (s *testStore) DeletePublishedFlow(_ context.Context, flowID string) error {
	delete(s.published, flowID)
	s.snapshotDeletes++

	return nil
}

func (s *testStore) HealthCheck(_ context.Context) error { return nil }

func (s *testStore) Close(_ context.Context) error { return nil }

// capturingPublisher records every emitted event.
type capturingPublisher struct {
	events []eventbus.Event
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.events = append(p.events, event)

	return p.err
}

func (p *capturingPublisher) typesEmitted() []events.EventType {
	types := make([]events.EventType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.GetType())
	}

	return types
}

type serviceFixture struct {
	store     *testStore
	scorer    *mocks.MockScorer
	notifier  *mocks.MockNotifier
	publisher *capturingPublisher
	service   *Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	store := newTestStore()
	scorer := &mocks.MockScorer{}
	notifier := &mocks.MockNotifier{}
	publisher := &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(
		store,
		schema.NewNormalizer(),
		MembershipAuthorizer{},
		scorer,
		notifier,
		lock.NewKeyedLocker(),
		publisher,
		logger,
		false,
	)

	return &serviceFixture{
		store:     store,
		scorer:    scorer,
		notifier:  notifier,
		publisher: publisher,
		service:   service,
	}
}

func (f *serviceFixture) seed(flow *models.Flow, workspace *models.Workspace) {
	f.store.flows[flow.ID] = flow
	f.store.workspaces[workspace.ID] = workspace
}

var testUser = &models.User{ID: "user-1"}

func TestPublishFirstTime(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(0)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	snapshot := f.store.published["flow-1"]
	require.NotNil(t, snapshot)
	assert.Equal(t, "flow-1", snapshot.FlowID)
	assert.Equal(t, 6, snapshot.Version)
	assert.Len(t, snapshot.Events, 1)

	require.Len(t, f.publisher.events, 1)

	published, ok := f.publisher.events[0].(events.FlowPublished)
	require.True(t, ok)
	assert.True(t, published.IsFirstPublish)
	assert.Equal(t, "user-1", published.UserID)
}

func TestPublishIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(0)

	require.NoError(t, f.service.Publish(context.Background(), "flow-1", testUser))

	firstID := f.store.published["flow-1"].ID

	require.NoError(t, f.service.Publish(context.Background(), "flow-1", testUser))

	assert.Equal(t, firstID, f.store.published["flow-1"].ID, "republish must replace, not duplicate")
	require.Len(t, f.publisher.events, 2)

	second, ok := f.publisher.events[1].(events.FlowPublished)
	require.True(t, ok)
	assert.False(t, second.IsFirstPublish)
}

func TestPublishUnknownFlow(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Publish(context.Background(), "missing", testUser)
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestPublishForbiddenIsConflatedWithNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", &models.User{ID: "stranger"})
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.Nil(t, f.store.published["flow-1"])
}

func TestPublishGuestIsForbidden(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").WithMember("guest-1", models.WorkspaceRoleGuest).Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", &models.User{ID: "guest-1"})
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestPublishStructurallyInvalidFlow(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithEvents().Build(), // version 6 with no start event
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.Error(t, err)

	var structural *schema.StructuralError

	assert.ErrorAs(t, err, &structural)
	assert.Nil(t, f.store.published["flow-1"])
}

func TestPublishFileUploadOnFreePlan(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithFileUploadBlock().Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrPlanRestricted)
	assert.Nil(t, f.store.published["flow-1"])
	f.scorer.AssertNotCalled(t, "ComputeRiskLevel", mock.Anything, mock.Anything)
}

func TestPublishFileUploadOnPaidPlan(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithFileUploadBlock().Build(),
		testutil.NewWorkspaceBuilder("ws-1").WithPlan(models.PlanStarter).Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(0)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.FlowPublishedEvent,
		events.FileUploadPublishedEvent,
	}, f.publisher.typesEmitted())
}

func TestPublishStoredScoreOverThreshold(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(85).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrFraudBlocked)

	// The pre-check must short-circuit: no recompute, no writes.
	f.scorer.AssertNotCalled(t, "ComputeRiskLevel", mock.Anything, mock.Anything)
	assert.Empty(t, f.store.riskUpdates)
	assert.Nil(t, f.store.published["flow-1"])
	assert.Empty(t, f.publisher.events)
}

func TestPublishExemptFlowSkipsScoring(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(models.RiskLevelExempt).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	f.scorer.AssertNotCalled(t, "ComputeRiskLevel", mock.Anything, mock.Anything)
	assert.Equal(t, models.RiskLevelExempt, f.store.flows["flow-1"].RiskLevel, "exempt marker must survive publishing")
	assert.NotNil(t, f.store.published["flow-1"])
}

func TestPublishVerifiedWorkspaceSkipsScoring(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(70).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Verified().Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	f.scorer.AssertNotCalled(t, "ComputeRiskLevel", mock.Anything, mock.Anything)
	assert.NotNil(t, f.store.published["flow-1"])
}

func TestPublishRecomputedScoreIsPersistedAndNotified(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(50).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(75)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	assert.Equal(t, []int{75}, f.store.riskUpdates)
	assert.Equal(t, 75, f.store.flows["flow-1"].RiskLevel)
	assert.NotNil(t, f.store.published["flow-1"], "75 is below the blocking threshold")
	f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.Anything)

	assert.Equal(t, []events.EventType{
		events.FlowRiskUpdatedEvent,
		events.FlowPublishedEvent,
	}, f.publisher.typesEmitted())
}

func TestPublishUnchangedScoreIsNotRewritten(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(40).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(40)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	assert.Empty(t, f.store.riskUpdates)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestPublishLowScoreDoesNotNotify(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(30)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	assert.Equal(t, []int{30}, f.store.riskUpdates)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestPublishMaxScoreDoesNotNotify(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(100)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrFraudBlocked)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	assert.Equal(t, []int{100}, f.store.riskUpdates, "the blocking score is still persisted")
}

func TestPublishNotificationFailureDoesNotBlock(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(70)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("webhook down"))

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)
	assert.NotNil(t, f.store.published["flow-1"])
}

func TestPublishRecomputeOverThresholdRollsBackSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithRiskLevel(10).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.store.published["flow-1"] = &models.PublishedFlow{ID: "snap-1", FlowID: "flow-1", Version: 6}
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(90)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrFraudBlocked)

	assert.Nil(t, f.store.published["flow-1"], "existing snapshot must be withdrawn")
	assert.Equal(t, 1, f.store.snapshotDeletes)
	f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.Anything)

	assert.Equal(t, []events.EventType{
		events.FlowRiskUpdatedEvent,
		events.FlowUnpublishedEvent,
	}, f.publisher.typesEmitted())
}

func TestPublishRecomputeOverThresholdWithoutSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(95)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrFraudBlocked)
	assert.Zero(t, f.store.snapshotDeletes)

	assert.NotContains(t, f.publisher.typesEmitted(), events.FlowUnpublishedEvent)
}

func TestPublishTelemetryFailureDoesNotFailPublish(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(0)
	f.publisher.err = errors.New("broker unavailable")

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)
	assert.NotNil(t, f.store.published["flow-1"])
}

func TestPublishLegacyVersionFlow(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").WithVersion(5).Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.scorer.On("ComputeRiskLevel", mock.Anything, mock.Anything).Return(0)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	snapshot := f.store.published["flow-1"]
	require.NotNil(t, snapshot)
	assert.Equal(t, 5, snapshot.Version)
	assert.Nil(t, snapshot.Events)
}

func TestUnpublish(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.store.published["flow-1"] = &models.PublishedFlow{ID: "snap-1", FlowID: "flow-1", Version: 6}

	err := f.service.Unpublish(context.Background(), "flow-1", testUser)
	require.NoError(t, err)

	assert.Nil(t, f.store.published["flow-1"])
	assert.Equal(t, []events.EventType{events.FlowUnpublishedEvent}, f.publisher.typesEmitted())
}

func TestUnpublishWithoutSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)

	err := f.service.Unpublish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrNotPublished)
}

func TestUnpublishForbiddenIsConflated(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Build(),
	)
	f.store.published["flow-1"] = &models.PublishedFlow{ID: "snap-1", FlowID: "flow-1", Version: 6}

	err := f.service.Unpublish(context.Background(), "flow-1", &models.User{ID: "stranger"})
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.NotNil(t, f.store.published["flow-1"])
}

func TestPublishSuspendedWorkspace(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(
		testutil.NewFlowBuilder("flow-1").Build(),
		testutil.NewWorkspaceBuilder("ws-1").Suspended().Build(),
	)

	err := f.service.Publish(context.Background(), "flow-1", testUser)
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
