package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/flowkit/pkg/cmd"
	"github.com/dukex/flowkit/pkg/log"
	"github.com/dukex/flowkit/pkg/quota"
)

const (
	defaultPort      = 9091
	defaultMaxGroups = 200
)

func main() {
	command := &cli.Command{
		Name:                  "flowkit-api",
		Usage:                 "Create, manage and publish conversational flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the cross-process publish lock (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "risk-webhook-url",
				Usage:   "Webhook URL for moderation notifications (optional)",
				Sources: cli.EnvVars("RISK_WEBHOOK_URL"),
			},
			&cli.BoolFlag{
				Name:    "risk-debug",
				Usage:   "Log matched risk keywords when scoring",
				Sources: cli.EnvVars("RISK_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "quota-url",
				Usage:   "Base URL of the quota advisory service (optional)",
				Sources: cli.EnvVars("QUOTA_URL"),
			},
			&cli.StringFlag{
				Name:    "quota-api-signature",
				Usage:   "Signature header value for the quota advisory service",
				Sources: cli.EnvVars("QUOTA_API_SIGNATURE"),
			},
			&cli.IntFlag{
				Name:    "quota-default-max-groups",
				Usage:   "Fallback group limit when the advisory service is unavailable",
				Value:   defaultMaxGroups,
				Sources: cli.EnvVars("QUOTA_DEFAULT_MAX_GROUPS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Flowkit API")

			registry := cmd.NewForgeRegistry()

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker := cmd.NewLocker(command.String("redis-url"))
			notifier := cmd.NewNotifier(command.String("risk-webhook-url"))
			quotaClient := quota.NewClient(
				command.String("quota-url"),
				command.String("quota-api-signature"),
				command.Int("quota-default-max-groups"),
				logger,
			)

			api := NewAPI(
				logger,
				store,
				registry,
				eventBus,
				locker,
				notifier,
				quotaClient,
				command.Bool("risk-debug"),
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
