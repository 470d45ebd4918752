package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/internal/utils"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
	"github.com/Rithvik985/situated-learning-api/pkg/detect"
	"github.com/Rithvik985/situated-learning-api/pkg/extract"
)

// EvaluationHandler wires the evaluation workflow HTTP routes: listings for
// the selection steps, submission upload, scoring, review and reporting.
type EvaluationHandler struct {
	generation  service.GenerationService
	rubrics     service.RubricService
	submissions service.SubmissionService
	evaluations service.EvaluationService
	reviews     service.ReviewService
	logger      zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(generation service.GenerationService, rubrics service.RubricService, submissions service.SubmissionService, evaluations service.EvaluationService, reviews service.ReviewService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		generation:  generation,
		rubrics:     rubrics,
		submissions: submissions,
		evaluations: evaluations,
		reviews:     reviews,
		logger:      logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation endpoints to the router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Get("/assignments", h.listAssignments)
	router.Get("/assignments/:id/rubrics", h.listRubrics)
	router.Get("/assignments/:id/report", h.report)
	router.Post("/submissions/upload", h.upload)
	router.Post("/evaluate", h.evaluate)
	router.Put("/submissions/:id/review", h.review)
	router.Post("/submissions/:id/detect-ai", h.detectAI)
	router.Put("/finalize", h.finalize)
}

func (h *EvaluationHandler) listCourses(c *fiber.Ctx) error {
	courses, err := h.generation.ListCourses(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *EvaluationHandler) listAssignments(c *fiber.Ctx) error {
	filter := repository.AssignmentFilter{}
	if courseID := c.Query("course_id"); courseID != "" {
		filter.CourseID = &courseID
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		filter.Difficulty = &difficulty
	}

	assignments, err := h.generation.ListAssignments(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *EvaluationHandler) listRubrics(c *fiber.Ctx) error {
	rubrics, err := h.rubrics.ListByAssignment(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rubrics retrieved", rubrics)
}

// upload accepts a multipart batch of submission files for one assignment.
func (h *EvaluationHandler) upload(c *fiber.Ctx) error {
	assignmentID := c.FormValue("assignment_id")
	if assignmentID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment_id is required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid multipart payload")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "no files provided")
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		opened, err := header.Open()
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, fmt.Sprintf("cannot read %s", header.Filename))
		}
		content, err := io.ReadAll(opened)
		opened.Close()
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, fmt.Sprintf("cannot read %s", header.Filename))
		}
		files = append(files, service.UploadFile{Name: header.Filename, Content: content})
	}

	responses, err := h.submissions.Upload(c.Context(), assignmentID, files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions uploaded", responses)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.evaluations.Evaluate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions evaluated", results)
}

func (h *EvaluationHandler) review(c *fiber.Ctx) error {
	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.reviews.SaveReview(c.Context(), c.Params("id"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review saved", result)
}

func (h *EvaluationHandler) finalize(c *fiber.Ctx) error {
	var payload dto.FinalizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.reviews.Finalize(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation finalized", result)
}

func (h *EvaluationHandler) detectAI(c *fiber.Ctx) error {
	result, err := h.submissions.DetectAI(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "analysis completed", result)
}

func (h *EvaluationHandler) report(c *fiber.Ctx) error {
	filename, content, err := h.reviews.Report(c.Context(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var (
		validationErrors validator.ValidationErrors
		detectErr        *detect.BackendError
		extractErr       *extract.BackendError
	)
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrRubricNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrEvaluationFinalized):
		return utils.SendError(c, fiber.StatusConflict, "evaluation is finalized")
	case errors.Is(err, service.ErrReviewReasonRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotProcessed):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoProcessedSubmissions):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrTooManyFiles):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &detectErr):
		return utils.SendErrorDetail(c, fiber.StatusBadGateway, "detection backend error", detectErr.Detail)
	case errors.As(err, &extractErr):
		return utils.SendErrorDetail(c, fiber.StatusBadGateway, "extraction backend error", extractErr.Detail)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
