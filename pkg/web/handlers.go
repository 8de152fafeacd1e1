package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dukex/flowkit/pkg/forge"
	"github.com/dukex/flowkit/pkg/models"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/publish"
)

// userIDHeader carries the acting principal. Authentication happens at the
// edge; this service trusts the header.
const userIDHeader = "X-User-ID"

type APIHandlers struct {
	store          persistence.Persistence
	publishService *publish.Service
	limitReviewer  *publish.LimitReviewer
	registry       *forge.Registry
	validator      *validator.Validate
}

func NewAPIHandlers(
	store persistence.Persistence,
	publishService *publish.Service,
	limitReviewer *publish.LimitReviewer,
	registry *forge.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		store:          store,
		publishService: publishService,
		limitReviewer:  limitReviewer,
		registry:       registry,
		validator:      validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck := "ok"
	httpStatus := http.StatusOK
	status := "healthy"

	if err := h.store.HealthCheck(c.Context()); err != nil {
		repositoryCheck = err.Error()
		httpStatus = http.StatusInternalServerError
		status = "unhealthy"
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository":   repositoryCheck,
			"forge_blocks": len(h.registry.IDs()),
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.store.Flows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows":       flows,
		"total_count": len(flows),
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.store.FlowByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if flow == nil {
		return notFound(c, "Flow not found")
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req SaveFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow := flowFromRequest(uuid.New().String(), &req)

	if err := h.store.SaveFlow(c.Context(), flow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(flow)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var req SaveFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.store.FlowByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if existing == nil {
		return notFound(c, "Flow not found")
	}

	flow := flowFromRequest(id, &req)
	flow.RiskLevel = existing.RiskLevel
	flow.CreatedAt = existing.CreatedAt

	if err := h.store.SaveFlow(c.Context(), flow); err != nil {
		return internalError(c, err)
	}

	// Advisory quota review. A failure here never fails the save; the
	// reviewer logs its own outcome.
	_ = h.limitReviewer.Review(c.Context(), id)

	return c.JSON(flow)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.store.DeleteFlow(c.Context(), id); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.publishService.Publish(c.Context(), id, currentUser(c)); err != nil {
		return handlePublishError(c, err)
	}

	return c.JSON(PublishResponse{FlowID: id, Status: "published"})
}

func (h *APIHandlers) UnpublishFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.publishService.Unpublish(c.Context(), id, currentUser(c)); err != nil {
		return handlePublishError(c, err)
	}

	return c.JSON(PublishResponse{FlowID: id, Status: "unpublished"})
}

func (h *APIHandlers) GetPublishedFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	published, err := h.store.PublishedFlowByFlowID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if published == nil {
		return notFound(c, "Flow has no published version")
	}

	return c.JSON(published)
}

func (h *APIHandlers) GetForgeBlocks(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"blocks": h.registry.Descriptors(),
	})
}

func (h *APIHandlers) ValidateForgeCredentials(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Block ID is required")
	}

	var req ValidateCredentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.registry.ValidateCredentials(id, req.Credentials); err != nil {
		if !h.registry.Has(id) {
			return notFound(c, "Forge block not found")
		}

		return badRequest(c, err.Error())
	}

	return c.JSON(fiber.Map{"valid": true})
}

func currentUser(c fiber.Ctx) *models.User {
	id := c.Get(userIDHeader)
	if id == "" {
		return nil
	}

	return &models.User{ID: id}
}

func flowFromRequest(id string, req *SaveFlowRequest) *models.Flow {
	return &models.Flow{
		ID:          id,
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Version:     req.Version,
		Groups:      req.Groups,
		Edges:       req.Edges,
		Variables:   req.Variables,
		Events:      req.Events,
		Settings:    req.Settings,
		Theme:       req.Theme,
	}
}
