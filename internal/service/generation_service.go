package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/stream"
	"github.com/Rithvik985/situated-learning-api/pkg/ai"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// Difficulty levels generated per run, two variants each.
var difficultyLevels = []string{"easy", "moderate", "hard"}

const variantsPerDifficulty = 2

// predefinedDomains is the situated-learning domain catalogue offered to
// faculty when configuring a generation run.
var predefinedDomains = []string{
	"Healthcare",
	"Finance",
	"E-Commerce",
	"Agriculture",
	"Education",
	"Transportation",
	"Energy",
	"Manufacturing",
	"Entertainment",
	"Public Governance",
}

// GenerationService drives progressive assignment generation and the
// post-generation edit and save flows.
type GenerationService interface {
	GenerateProgressive(ctx context.Context, payload dto.GenerateAssignmentsRequest) (io.ReadCloser, error)
	Domains() []string
	EditAssignment(ctx context.Context, id string, payload dto.AssignmentEditRequest) (dto.AssignmentResponse, error)
	SaveBatch(ctx context.Context, payload dto.SaveAssignmentsRequest) ([]dto.AssignmentResponse, error)
	ListAssignments(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error)
	ListCourses(ctx context.Context) ([]dto.CourseResponse, error)
}

type generationService struct {
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	generator   ai.Generator
	events      Publisher
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewGenerationService builds the generation service.
func NewGenerationService(courses repository.CourseRepository, assignments repository.AssignmentRepository, generator ai.Generator, events Publisher, validate *validator.Validate, logger zerolog.Logger) GenerationService {
	return &generationService{
		courses:     courses,
		assignments: assignments,
		generator:   generator,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "generation_service").Logger(),
	}
}

func (s *generationService) Domains() []string {
	domains := make([]string, len(predefinedDomains))
	copy(domains, predefinedDomains)
	return domains
}

// GenerateProgressive validates the request, then starts a generation run in
// the background and returns the read side of its record stream. Records are
// newline-delimited JSON; the run ends with a complete or error record.
func (s *generationService) GenerateProgressive(ctx context.Context, payload dto.GenerateAssignmentsRequest) (io.ReadCloser, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	course, err := s.findOrCreateCourse(ctx, payload)
	if err != nil {
		return nil, err
	}

	reader, writer := io.Pipe()
	go s.run(ctx, course, payload, writer)

	return reader, nil
}

func (s *generationService) run(ctx context.Context, course models.Course, payload dto.GenerateAssignmentsRequest, writer *io.PipeWriter) {
	defer writer.Close()

	emitter := stream.NewEmitter(writer)
	total := len(difficultyLevels) * variantsPerDifficulty
	completed := 0

	_ = emitter.Progress(completed, total, "starting assignment generation")

	for _, difficulty := range difficultyLevels {
		for variant := 0; variant < variantsPerDifficulty; variant++ {
			observability.GenerationRecords().WithLabelValues("progress").Inc()
			_ = emitter.Progress(completed, total, fmt.Sprintf("generating %s assignment %d of %d", difficulty, variant+1, variantsPerDifficulty))

			generated, err := s.generator.GenerateAssignment(ctx, ai.AssignmentRequest{
				CourseName:         course.Title,
				Topics:             payload.Topics,
				Domains:            payload.Domains,
				DifficultyLevel:    difficulty,
				CustomInstructions: payload.Description,
			})
			if err != nil {
				s.logger.Error().Err(err).Str("difficulty", difficulty).Msg("assignment generation failed")
				observability.GenerationRecords().WithLabelValues("error").Inc()
				_ = emitter.Error(fmt.Sprintf("generation failed for %s assignment: %v", difficulty, err))
				return
			}

			assignment := models.Assignment{
				ID:              uuid.NewString(),
				CourseID:        course.ID,
				Title:           generated.Title,
				Description:     generated.Description,
				DifficultyLevel: difficulty,
				Topics:          models.EncodeStringSlice(payload.Topics),
				Domains:         models.EncodeStringSlice(payload.Domains),
				Tags:            models.EncodeStringSlice([]string{models.AssignmentTagGenerated}),
				Version:         1,
			}
			if err := s.assignments.Create(ctx, &assignment); err != nil {
				s.logger.Error().Err(err).Msg("failed to persist generated assignment")
				observability.GenerationRecords().WithLabelValues("error").Inc()
				_ = emitter.Error("failed to store generated assignment")
				return
			}

			completed++
			observability.GenerationRecords().WithLabelValues("assignment").Inc()
			_ = emitter.Assignment(dto.NewAssignmentResponse(assignment), completed, total)
			s.events.Publish(SubjectAssignmentGenerated, dto.NewAssignmentResponse(assignment))
		}
	}

	observability.GenerationRecords().WithLabelValues("complete").Inc()
	_ = emitter.Complete(completed, "assignment generation finished")
	s.logger.Info().Int("count", completed).Str("course_id", course.ID).Msg("generation run completed")
}

func (s *generationService) findOrCreateCourse(ctx context.Context, payload dto.GenerateAssignmentsRequest) (models.Course, error) {
	course, err := s.courses.FindByOffering(ctx, payload.CourseName, payload.AcademicYear, payload.Semester)
	if err == nil {
		return course, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Course{}, err
	}

	course = models.Course{
		ID:           uuid.NewString(),
		Title:        payload.CourseName,
		CourseCode:   payload.CourseCode,
		AcademicYear: payload.AcademicYear,
		Semester:     payload.Semester,
		Description:  payload.Description,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return models.Course{}, err
	}

	s.logger.Info().Str("course_id", course.ID).Str("title", course.Title).Msg("course created")
	return course, nil
}

// EditAssignment applies a faculty edit. The reason is mandatory; the edit
// swaps the AI-Generated tag for Modified and advances the version.
func (s *generationService) EditAssignment(ctx context.Context, id string, payload dto.AssignmentEditRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment.Title = payload.Title
	assignment.Description = payload.Description
	assignment.MarkModified(payload.ReasonForChange)

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Str("assignment_id", id).Int("version", assignment.Version).Msg("assignment edited")
	return dto.NewAssignmentResponse(assignment), nil
}

// SaveBatch names a generated batch and marks exactly one assignment as the
// working selection within its course.
func (s *generationService) SaveBatch(ctx context.Context, payload dto.SaveAssignmentsRequest) ([]dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	responses := make([]dto.AssignmentResponse, 0, len(payload.AssignmentIDs))
	for _, id := range payload.AssignmentIDs {
		assignment, err := s.assignments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}

		assignment.AssignmentName = payload.AssignmentName
		if err := s.assignments.Update(ctx, &assignment); err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewAssignmentResponse(assignment))
	}

	if err := s.assignments.MarkSelected(ctx, payload.CourseID, payload.SelectedAssignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	for i := range responses {
		responses[i].IsSelected = responses[i].ID == payload.SelectedAssignmentID
	}

	s.logger.Info().Str("course_id", payload.CourseID).Str("selected", payload.SelectedAssignmentID).Int("count", len(responses)).Msg("assignment batch saved")
	return responses, nil
}

func (s *generationService) ListAssignments(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *generationService) ListCourses(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}
