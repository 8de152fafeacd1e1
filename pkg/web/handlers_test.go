package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/forge"
	"github.com/dukex/flowkit/pkg/lock"
	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/notify"
	"github.com/dukex/flowkit/pkg/persistence/file"
	"github.com/dukex/flowkit/pkg/publish"
	"github.com/dukex/flowkit/pkg/quota"
	"github.com/dukex/flowkit/pkg/radar"
	"github.com/dukex/flowkit/pkg/schema"
	"github.com/dukex/flowkit/pkg/testutil"
)

type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ string, _ eventbus.Event) error { return nil }

func setupApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())
	locker := lock.NewKeyedLocker()

	advisory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"limit": 1000}`))
	}))
	t.Cleanup(advisory.Close)

	publishService := publish.NewService(
		store,
		schema.NewNormalizer(),
		publish.MembershipAuthorizer{},
		radar.NewKeywordScorer(logger),
		notify.NopNotifier{},
		locker,
		nopPublisher{},
		logger,
		false,
	)
	limitReviewer := publish.NewLimitReviewer(
		store,
		quota.NewClient(advisory.URL, "sig", 100, logger),
		locker,
		nopPublisher{},
		logger,
	)

	registry := forge.NewRegistry()
	forge.RegisterDefaultBlocks(registry)

	handlers := NewAPIHandlers(store, publishService, limitReviewer, registry,
		validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()

	f := app.Group("/flows")
	f.Get("/", handlers.GetFlows)
	f.Post("/", handlers.CreateFlow)
	f.Get("/:id", handlers.GetFlow)
	f.Put("/:id", handlers.UpdateFlow)
	f.Delete("/:id", handlers.DeleteFlow)
	f.Post("/:id/publish", handlers.PublishFlow)
	f.Post("/:id/unpublish", handlers.UnpublishFlow)
	f.Get("/:id/published", handlers.GetPublishedFlow)

	b := app.Group("/forge/blocks")
	b.Get("/", handlers.GetForgeBlocks)
	b.Post("/:id/credentials/validate", handlers.ValidateForgeCredentials)

	app.Get("/health", handlers.HealthCheck)

	return app, store
}

func seedPublishableFlow(t *testing.T, store *file.Persistence, opts ...func(*models.Flow, *models.Workspace)) {
	t.Helper()

	ctx := context.Background()
	flow := testutil.NewFlowBuilder("flow-1").Build()
	workspace := testutil.NewWorkspaceBuilder("ws-1").Build()

	for _, opt := range opts {
		opt(flow, workspace)
	}

	require.NoError(t, store.SaveWorkspace(ctx, workspace))
	require.NoError(t, store.SaveFlow(ctx, flow))
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userIDHeader, "user-1")

	return req
}

func TestCreateAndGetFlow(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows", SaveFlowRequest{
		WorkspaceID: "ws-1",
		Name:        "Onboarding",
		Version:     6,
		Events:      []*models.StartEvent{{ID: "event-1", Type: models.StartEventType}},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/flows/"+created.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateFlowRejectsInvalidBody(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows", SaveFlowRequest{
		Name: "missing workspace and version",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFlowNotFound(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/flows/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishFlow(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/flows/flow-1/published", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot models.PublishedFlow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, "flow-1", snapshot.FlowID)
}

func TestPublishUnknownFlowReturnsNotFound(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/missing/publish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishForbiddenLooksLikeNotFound(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store)

	req := jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil)
	req.Header.Set(userIDHeader, "stranger")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishPlanRestricted(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store, func(flow *models.Flow, _ *models.Workspace) {
		flow.Groups = append(flow.Groups, &models.Group{
			ID:     "group-upload",
			Blocks: []*models.Block{{ID: "block-upload", Type: models.BlockTypeFileInput}},
		})
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var problem map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "plan_restricted", problem["type"])
}

func TestPublishBlockedFlow(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store, func(flow *models.Flow, _ *models.Workspace) {
		flow.RiskLevel = 85
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var problem map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "flow_blocked", problem["type"])
}

func TestPublishStructurallyInvalidFlow(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store, func(flow *models.Flow, _ *models.Workspace) {
		flow.Events = nil // version 6 requires a start event
		flow.Edges = nil
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnpublishFlow(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/publish", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/unpublish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/flows/flow-1/published", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnpublishWithoutSnapshot(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/flows/flow-1/unpublish", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetForgeBlocks(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/forge/blocks", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Blocks []forge.BlockDescriptor `json:"blocks"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Blocks)
}

func TestValidateForgeCredentials(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/forge/blocks/openai/credentials/validate",
		ValidateCredentialsRequest{Credentials: map[string]any{"apiKey": "sk-123"}}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/forge/blocks/openai/credentials/validate",
		ValidateCredentialsRequest{Credentials: map[string]any{"wrong": true}}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/forge/blocks/nope/credentials/validate",
		ValidateCredentialsRequest{Credentials: map[string]any{"apiKey": "x"}}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateFlowKeepsRiskLevel(t *testing.T) {
	app, store := setupApp(t)
	seedPublishableFlow(t, store, func(flow *models.Flow, _ *models.Workspace) {
		flow.RiskLevel = 40
	})

	resp, err := app.Test(jsonRequest(http.MethodPut, "/flows/flow-1", SaveFlowRequest{
		WorkspaceID: "ws-1",
		Name:        "Renamed",
		Version:     6,
		Events:      []*models.StartEvent{{ID: "event-1", Type: models.StartEventType}},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	flow, err := store.FlowByID(context.Background(), "flow-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", flow.Name)
	assert.Equal(t, 40, flow.RiskLevel, "risk level is owned by the gate, not the editor")
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
