// Package main provides the Flowkit API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/dukex/flowkit/pkg/eventbus"
	"github.com/dukex/flowkit/pkg/forge"
	"github.com/dukex/flowkit/pkg/lock"
	"github.com/dukex/flowkit/pkg/notify"
	"github.com/dukex/flowkit/pkg/persistence"
	"github.com/dukex/flowkit/pkg/publish"
	"github.com/dukex/flowkit/pkg/quota"
	"github.com/dukex/flowkit/pkg/radar"
	"github.com/dukex/flowkit/pkg/schema"
	"github.com/dukex/flowkit/pkg/web"
)

type API struct {
	logger    *slog.Logger
	store     persistence.Persistence
	registry  *forge.Registry
	eventBus  eventbus.EventBus
	locker    lock.Locker
	notifier  notify.Notifier
	quota     *quota.Client
	riskDebug bool
	validate  *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	registry *forge.Registry,
	eventBus eventbus.EventBus,
	locker lock.Locker,
	notifier notify.Notifier,
	quotaClient *quota.Client,
	riskDebug bool,
) *API {
	return &API{
		logger:    logger,
		store:     store,
		registry:  registry,
		eventBus:  eventBus,
		locker:    locker,
		notifier:  notifier,
		quota:     quotaClient,
		riskDebug: riskDebug,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	publishService := publish.NewService(
		a.store,
		schema.NewNormalizer(),
		publish.MembershipAuthorizer{},
		radar.NewKeywordScorer(a.logger),
		a.notifier,
		a.locker,
		a.eventBus,
		a.logger,
		a.riskDebug,
	)
	limitReviewer := publish.NewLimitReviewer(a.store, a.quota, a.locker, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(a.store, publishService, limitReviewer, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowkit API")
	})

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

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
