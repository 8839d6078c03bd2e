// Package main provides the Symposium API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/symposiumhq/symposium/pkg/eventbus"
	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/services"
	"github.com/symposiumhq/symposium/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	threadService := services.NewThreadService(a.persistence, a.eventBus, a.logger)
	personaService := services.NewPersonaService(a.persistence, a.logger)

	handlers := web.NewAPIHandlers(threadService, personaService, a.validate, a.repositoryHealth)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Symposium API")
	})

	t := app.Group("/threads")
	t.Get("/", handlers.GetThreads)
	t.Get("/:id", handlers.GetThread)
	t.Get("/:id/attempts", handlers.GetThreadAttempts)

	app.Post("/debates", handlers.CreateDebate)
	app.Post("/questions", handlers.CreateQuestion)
	app.Post("/commentaries", handlers.CreateCommentary)

	p := app.Group("/personas")
	p.Get("/", handlers.GetPersonas)
	p.Post("/", handlers.CreatePersona)
	p.Get("/:id", handlers.GetPersona)
	p.Get("/:id/prompts", handlers.GetPersonaPrompts)
	p.Post("/:id/prompts", handlers.AddPersonaPrompt)
	p.Post("/:id/prompts/:promptId/activate", handlers.ActivatePersonaPrompt)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) repositoryHealth(c fiber.Ctx) (string, bool) {
	err := a.persistence.HealthCheck(c.Context())
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
