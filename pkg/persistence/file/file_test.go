package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/testutil"
)

func newStore(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func TestSaveAndLoadFlow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	flow := testutil.NewFlowBuilder("flow-1").Build()
	require.NoError(t, store.SaveFlow(ctx, flow))

	loaded, err := store.FlowByID(ctx, "flow-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, flow.Name, loaded.Name)
	assert.Equal(t, 6, loaded.Version)
	assert.Len(t, loaded.Events, 1)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestFlowByIDMissingReturnsNil(t *testing.T) {
	store := newStore(t)

	flow, err := store.FlowByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func TestFlowsLists(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-1").Build()))
	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-2").Build()))

	flows, err := store.Flows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestUpdateFlowRiskLevel(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-1").Build()))
	require.NoError(t, store.UpdateFlowRiskLevel(ctx, "flow-1", 75))

	flow, err := store.FlowByID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, 75, flow.RiskLevel)
}

func TestUpdateFlowRiskLevelMissingFlow(t *testing.T) {
	store := newStore(t)

	err := store.UpdateFlowRiskLevel(context.Background(), "missing", 75)
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestSavePublishedFlowAssignsID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snapshot := &models.PublishedFlow{FlowID: "flow-1", Version: 6}
	require.NoError(t, store.SavePublishedFlow(ctx, snapshot))
	assert.NotEmpty(t, snapshot.ID)

	loaded, err := store.PublishedFlowByFlowID(ctx, "flow-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snapshot.ID, loaded.ID)
}

func TestSavePublishedFlowReplaces(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := &models.PublishedFlow{FlowID: "flow-1", Version: 6}
	require.NoError(t, store.SavePublishedFlow(ctx, first))

	second := &models.PublishedFlow{ID: first.ID, FlowID: "flow-1", Version: 6,
		Groups: []*models.Group{{ID: "group-1"}}}
	require.NoError(t, store.SavePublishedFlow(ctx, second))

	loaded, err := store.PublishedFlowByFlowID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)
	assert.Len(t, loaded.Groups, 1)
}

func TestDeletePublishedFlowIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePublishedFlow(ctx, &models.PublishedFlow{FlowID: "flow-1", Version: 6}))
	require.NoError(t, store.DeletePublishedFlow(ctx, "flow-1"))
	require.NoError(t, store.DeletePublishedFlow(ctx, "flow-1"), "deleting an absent snapshot is a no-op")

	loaded, err := store.PublishedFlowByFlowID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteFlowRemovesSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-1").Build()))
	require.NoError(t, store.SavePublishedFlow(ctx, &models.PublishedFlow{FlowID: "flow-1", Version: 6}))

	require.NoError(t, store.DeleteFlow(ctx, "flow-1"))

	snapshot, err := store.PublishedFlowByFlowID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestFlowContextByID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorkspace(ctx, testutil.NewWorkspaceBuilder("ws-1").Build()))
	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-1").Build()))

	fc, err := store.FlowContextByID(ctx, "flow-1")
	require.NoError(t, err)
	require.NotNil(t, fc)
	assert.Equal(t, "ws-1", fc.Workspace.ID)
	assert.False(t, fc.HasPublished())

	require.NoError(t, store.SavePublishedFlow(ctx, &models.PublishedFlow{FlowID: "flow-1", Version: 6}))

	fc, err = store.FlowContextByID(ctx, "flow-1")
	require.NoError(t, err)
	assert.True(t, fc.HasPublished())
}

func TestFlowContextByIDMissingWorkspace(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFlow(ctx, testutil.NewFlowBuilder("flow-1").Build()))

	_, err := store.FlowContextByID(ctx, "flow-1")
	assert.True(t, persistence.IsWorkspaceNotFound(err))
}

func TestFlowContextByIDMissingFlow(t *testing.T) {
	store := newStore(t)

	fc, err := store.FlowContextByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, fc)
}
