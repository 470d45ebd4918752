package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/internal/utils"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

// WorkflowHandler wires workflow session HTTP routes.
type WorkflowHandler struct {
	service service.WorkflowService
	logger  zerolog.Logger
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service service.WorkflowService, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		service: service,
		logger:  logger.With().Str("component", "workflow_handler").Logger(),
	}
}

// Register attaches workflow session endpoints to the router group.
func (h *WorkflowHandler) Register(router fiber.Router) {
	router.Post("/sessions", h.create)
	router.Get("/sessions/:id", h.get)
	router.Delete("/sessions/:id", h.delete)
	router.Post("/sessions/:id/commands", h.apply)
}

func (h *WorkflowHandler) create(c *fiber.Ctx) error {
	session, err := h.service.CreateSession(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", session)
}

func (h *WorkflowHandler) get(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session retrieved", session)
}

func (h *WorkflowHandler) delete(c *fiber.Ctx) error {
	if err := h.service.DeleteSession(c.Context(), c.Params("id")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "session deleted", fiber.Map{"id": c.Params("id")})
}

func (h *WorkflowHandler) apply(c *fiber.Ctx) error {
	var request dto.CommandRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	cmd, err := request.Decode()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.service.ApplyCommand(c.Context(), c.Params("id"), cmd)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "command applied", session)
}

func (h *WorkflowHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "session not found")
	case errors.Is(err, workflow.ErrStepOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrTooManyFiles),
		errors.Is(err, workflow.ErrUnsupportedFileType),
		errors.Is(err, workflow.ErrFileNotRemovable),
		errors.Is(err, workflow.ErrFileNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
