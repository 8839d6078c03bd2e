package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/symposiumhq/symposium/pkg/cmd"
	"github.com/symposiumhq/symposium/pkg/generation"
	"github.com/symposiumhq/symposium/pkg/host"
	"github.com/symposiumhq/symposium/pkg/log"
	"github.com/symposiumhq/symposium/pkg/otelhelper"
	"github.com/symposiumhq/symposium/pkg/scheduler"
	"github.com/symposiumhq/symposium/pkg/services"
	"github.com/symposiumhq/symposium/pkg/synthesis"
	"github.com/symposiumhq/symposium/pkg/thread"
)

func main() {
	command := &cli.Command{
		Name:                  "symposium-worker",
		EnableShellCompletion: true,
		Usage:                 "Run thread generation workers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, memory)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "anthropic-api-key",
				Usage:    "API key for the model provider",
				Required: true,
				Sources:  cli.EnvVars("ANTHROPIC_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Model identifier override",
				Value:   "",
				Sources: cli.EnvVars("SYMPOSIUM_MODEL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the cross-worker run guard (in-memory guard if unset)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.IntFlag{
				Name:    "retry-limit",
				Usage:   "Generation attempts per participant per phase",
				Value:   generation.DefaultAttemptLimit,
				Sources: cli.EnvVars("RETRY_LIMIT"),
			},
			&cli.DurationFlag{
				Name:    "step-delay",
				Usage:   "Pause between sequential provider calls within one thread",
				Value:   thread.DefaultStepDelay,
				Sources: cli.EnvVars("STEP_DELAY"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for standing-topic debates (disabled if unset)",
				Value:   "",
				Sources: cli.EnvVars("DEBATE_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "topics-file",
				Usage:   "JSON file with the standing debate topics",
				Value:   "",
				Sources: cli.EnvVars("TOPICS_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("symposium-worker").With("worker_id", workerID)

	logger.InfoContext(ctx, "Initializing Symposium Worker")

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		err := persistence.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	tracer, err := otelhelper.NewTracer(ctx, "symposium-worker")
	if err != nil {
		return err
	}

	providerClient := cmd.NewProvider(logger, command.String("anthropic-api-key"), command.String("model"))
	generationClient := generation.NewClient(providerClient, logger)
	retrier := generation.NewRetrier(
		generationClient,
		persistence.AttemptRepository(),
		command.Int("retry-limit"),
		time.Second,
		logger,
	)
	synthesizer := synthesis.NewGenerator(generationClient, persistence.AttemptRepository(), logger)
	driver := thread.NewDriver(
		persistence,
		retrier,
		synthesizer,
		command.Duration("step-delay"),
		tracer,
		logger,
	)

	runHost := host.NewHost(
		driver,
		persistence,
		eventBus,
		cmd.NewGuard(command.String("redis-url")),
		workerID,
		logger,
	)

	var sched *scheduler.Scheduler

	if spec := command.String("schedule"); spec != "" {
		topics, err := scheduler.LoadTopics(command.String("topics-file"))
		if err != nil {
			return err
		}

		threadService := services.NewThreadService(persistence, eventBus, logger)
		personaService := services.NewPersonaService(persistence, logger)
		sched = scheduler.NewScheduler(threadService, personaService, topics, logger)

		err = sched.Start(ctx, spec)
		if err != nil {
			return err
		}

		defer sched.Stop()
	}

	worker := NewWorkerManager(workerID, eventBus, runHost, logger)

	return worker.Start(ctx)
}
