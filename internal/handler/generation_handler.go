package handler

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/internal/stream"
	"github.com/Rithvik985/situated-learning-api/internal/utils"
)

// GenerationHandler wires assignment generation HTTP routes.
type GenerationHandler struct {
	service service.GenerationService
	logger  zerolog.Logger
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(service service.GenerationService, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  logger.With().Str("component", "generation_handler").Logger(),
	}
}

// Register attaches generation endpoints to the router group.
func (h *GenerationHandler) Register(router fiber.Router) {
	router.Post("/generate-progressive", h.generateProgressive)
	router.Get("/domains", h.domains)
	router.Put("/assignments/:id", h.editAssignment)
	router.Post("/assignments/save", h.saveBatch)
}

// generateProgressive starts a generation run and relays its record stream
// to the client as newline-delimited JSON. The relay is driven by the stream
// consumer, so partial output before a failure still reaches the client and
// the assembled result is logged server-side.
func (h *GenerationHandler) generateProgressive(c *fiber.Ctx) error {
	var payload dto.GenerateAssignmentsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reader, err := h.service.GenerateProgressive(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	logger := h.logger
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer reader.Close()

		consumer := stream.NewConsumer(logger, stream.WithProgress(func(completed, total int, _ string) {
			_ = w.Flush()
		}))

		result, err := consumer.Consume(context.Background(), io.TeeReader(reader, flushWriter{w}))
		if err != nil {
			logger.Warn().Err(err).Int("assignments", len(result.Assignments)).Msg("generation stream ended with error")
			return
		}
		logger.Info().Int("assignments", len(result.Assignments)).Msg("generation stream relayed")
	})

	return nil
}

// flushWriter flushes after every write so each record reaches the client as
// soon as it is produced.
type flushWriter struct {
	w *bufio.Writer
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.w.Flush()
}

func (h *GenerationHandler) domains(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "domains retrieved", fiber.Map{"domains": h.service.Domains()})
}

func (h *GenerationHandler) editAssignment(c *fiber.Ctx) error {
	id := c.Params("id")

	var payload dto.AssignmentEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.EditAssignment(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *GenerationHandler) saveBatch(c *fiber.Ctx) error {
	var payload dto.SaveAssignmentsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignments, err := h.service.SaveBatch(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments saved", assignments)
}

func (h *GenerationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
