package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/dukex/flowkit/pkg/publish"
	"github.com/dukex/flowkit/pkg/schema"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handlePublishError maps the publish error taxonomy onto HTTP statuses.
// Forbidden writes already arrive conflated as not found; this mapping must
// not re-distinguish them.
func handlePublishError(c fiber.Ctx, err error) error {
	var structural *schema.StructuralError

	switch {
	case errors.Is(err, publish.ErrFlowNotFound):
		return notFound(c, publish.ErrFlowNotFound.Error())

	case errors.Is(err, publish.ErrPlanRestricted):
		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("plan_restricted").
			WithDetail(publish.ErrPlanRestricted.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case errors.Is(err, publish.ErrFraudBlocked):
		problem := problems.NewStatusProblem(403).
			WithInstance(c.Path()).
			WithType("flow_blocked").
			WithDetail(publish.ErrFraudBlocked.Error())

		return c.Status(fiber.StatusForbidden).JSON(problem)

	case errors.Is(err, publish.ErrNotPublished):
		return badRequest(c, publish.ErrNotPublished.Error())

	case errors.As(err, &structural):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("invalid_flow").
			WithDetail(structural.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	default:
		return internalError(c, err)
	}
}
