// Package web provides HTTP handlers and REST API endpoints for thread and
// persona management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/symposiumhq/symposium/pkg/models"
	"github.com/symposiumhq/symposium/pkg/services"
)

type APIHandlers struct {
	threadService  *services.ThreadService
	personaService *services.PersonaService
	validator      *validator.Validate
	healthCheck    func(c fiber.Ctx) (string, bool)
}

func NewAPIHandlers(
	threadService *services.ThreadService,
	personaService *services.PersonaService,
	validator *validator.Validate,
	healthCheck func(c fiber.Ctx) (string, bool),
) *APIHandlers {
	return &APIHandlers{
		threadService:  threadService,
		personaService: personaService,
		validator:      validator,
		healthCheck:    healthCheck,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.healthCheck(c)

	status := "unhealthy"
	message := "Symposium API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Symposium API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) CreateDebate(c fiber.Ctx) error {
	var req CreateDebateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	thread, err := h.threadService.CreateDebate(c.Context(), services.CreateDebateParams{
		Topic:         req.Topic,
		SourceTitle:   req.SourceTitle,
		SourceExcerpt: req.SourceExcerpt,
		PersonaIDs:    req.PersonaIDs,
		LengthTier:    models.LengthTier(req.Length).OrDefault(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     thread.ID,
		"status": thread.Status,
	})
}

func (h *APIHandlers) CreateQuestion(c fiber.Ctx) error {
	var req CreateQuestionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	thread, err := h.threadService.CreateQuestion(c.Context(), services.CreateQuestionParams{
		Question:   req.Question,
		PersonaIDs: req.PersonaIDs,
		LengthTier: models.LengthTier(req.Length).OrDefault(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     thread.ID,
		"status": thread.Status,
	})
}

func (h *APIHandlers) CreateCommentary(c fiber.Ctx) error {
	var req CreateCommentaryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	thread, err := h.threadService.CreateCommentary(c.Context(), services.CreateCommentaryParams{
		SourceTitle:   req.SourceTitle,
		SourceExcerpt: req.SourceExcerpt,
		PersonaID:     req.PersonaID,
		LengthTier:    models.LengthTier(req.Length).OrDefault(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     thread.ID,
		"status": thread.Status,
	})
}

func (h *APIHandlers) GetThreads(c fiber.Ctx) error {
	threads, err := h.threadService.ListThreads(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"threads": threads})
}

// GetThread is the poll endpoint: callers watch it until status is complete.
func (h *APIHandlers) GetThread(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Thread ID is required")
	}

	view, err := h.threadService.GetThread(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformThreadResponse(view))
}

// GetThreadAttempts exposes the generation audit trail.
func (h *APIHandlers) GetThreadAttempts(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Thread ID is required")
	}

	attempts, err := h.threadService.Attempts(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"attempts": attempts})
}

func (h *APIHandlers) GetPersonas(c fiber.Ctx) error {
	personas, err := h.personaService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"personas": personas})
}

func (h *APIHandlers) GetPersona(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Persona ID is required")
	}

	persona, err := h.personaService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(persona)
}

func (h *APIHandlers) CreatePersona(c fiber.Ctx) error {
	var req CreatePersonaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	persona, err := h.personaService.Create(c.Context(), services.CreatePersonaParams{
		Name:    req.Name,
		Style:   req.Style,
		Color:   req.Color,
		Initial: req.Initial,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(persona)
}

func (h *APIHandlers) GetPersonaPrompts(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Persona ID is required")
	}

	prompts, err := h.personaService.Prompts(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"prompts": prompts})
}

func (h *APIHandlers) AddPersonaPrompt(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Persona ID is required")
	}

	var req AddPromptRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	prompt, err := h.personaService.AddPrompt(c.Context(), id, req.Content, req.Activate)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(prompt)
}

func (h *APIHandlers) ActivatePersonaPrompt(c fiber.Ctx) error {
	id := c.Params("id")
	promptID := c.Params("promptId")

	if id == "" || promptID == "" {
		return badRequest(c, "Persona ID and prompt ID are required")
	}

	err := h.personaService.ActivatePrompt(c.Context(), id, promptID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
