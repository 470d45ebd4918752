package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/models"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/rubric"
	"github.com/Rithvik985/situated-learning-api/pkg/ai"
)

// Service-level rubric errors surfaced to handlers.
var (
	ErrRubricNotFound = errors.New("rubric not found")
	ErrRubricInvalid  = errors.New("generated rubric failed validation")
)

// rubricDraftSchema gates AI rubric output before anything is persisted.
// Exactly four categories with five questions each, non-empty strings
// throughout.
const rubricDraftSchema = `{
  "type": "object",
  "required": ["rubric_name", "rubrics"],
  "properties": {
    "rubric_name": {"type": "string", "minLength": 2},
    "doc_type": {"type": "string"},
    "rubrics": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {
        "type": "object",
        "required": ["category", "questions"],
        "properties": {
          "category": {"type": "string", "minLength": 2},
          "questions": {
            "type": "array",
            "minItems": 5,
            "maxItems": 5,
            "items": {"type": "string", "minLength": 3}
          }
        }
      }
    }
  }
}`

// RubricService drives AI rubric drafting and the tracked edit flow.
type RubricService interface {
	Generate(ctx context.Context, payload dto.RubricGenerateRequest) (dto.RubricResponse, error)
	Update(ctx context.Context, id string, payload dto.RubricUpdateRequest) (dto.RubricResponse, error)
	Get(ctx context.Context, id string) (dto.RubricResponse, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]dto.RubricResponse, error)
}

type rubricService struct {
	rubrics     repository.RubricRepository
	assignments repository.AssignmentRepository
	generator   ai.Generator
	events      Publisher
	schema      *jsonschema.Schema
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRubricService builds the rubric service. Panics if the embedded draft
// schema does not compile; that is a programming error, not a runtime state.
func NewRubricService(rubrics repository.RubricRepository, assignments repository.AssignmentRepository, generator ai.Generator, events Publisher, validate *validator.Validate, logger zerolog.Logger) RubricService {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rubric_draft.json", strings.NewReader(rubricDraftSchema)); err != nil {
		panic(fmt.Sprintf("rubric draft schema: %v", err))
	}
	schema := compiler.MustCompile("rubric_draft.json")

	return &rubricService{
		rubrics:     rubrics,
		assignments: assignments,
		generator:   generator,
		events:      events,
		schema:      schema,
		validator:   validate,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
	}
}

// Generate asks the model for a rubric draft covering the given assignments
// and persists it once the draft passes the schema gate.
func (s *rubricService) Generate(ctx context.Context, payload dto.RubricGenerateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	var text strings.Builder
	for _, id := range payload.AssignmentIDs {
		assignment, err := s.assignments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.RubricResponse{}, ErrAssignmentNotFound
			}
			return dto.RubricResponse{}, err
		}
		fmt.Fprintf(&text, "%s\n%s\n\n", assignment.Title, assignment.Description)
	}

	draft, err := s.generator.GenerateRubric(ctx, ai.RubricRequest{Text: text.String(), DocType: payload.DocType})
	if err != nil {
		return dto.RubricResponse{}, err
	}

	if err := s.validateDraft(draft); err != nil {
		s.logger.Warn().Err(err).Msg("rubric draft rejected by schema")
		return dto.RubricResponse{}, fmt.Errorf("%w: %v", ErrRubricInvalid, err)
	}

	categories := make([]models.RubricCategory, 0, len(draft.Categories))
	for _, category := range draft.Categories {
		categories = append(categories, models.RubricCategory{
			Name:      category.Category,
			Questions: category.Questions,
		})
	}

	model := models.Rubric{
		ID:            uuid.NewString(),
		AssignmentIDs: models.EncodeStringSlice(payload.AssignmentIDs),
		Name:          draft.Name,
		DocType:       draft.DocType,
		Version:       1,
	}
	model.SetCategories(categories)

	if err := s.rubrics.Create(ctx, &model); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Str("rubric_id", model.ID).Int("categories", len(categories)).Msg("rubric generated")
	s.events.Publish(SubjectRubricCreated, dto.NewRubricResponse(model))

	return dto.NewRubricResponse(model), nil
}

func (s *rubricService) validateDraft(draft ai.RubricDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	return s.schema.Validate(doc)
}

// Update applies an edited rubric. Structural edits require a justification
// and set is_edited; cosmetic edits only touch name and doc type. The change
// kind is classified against the stored rubric, never trusted from the
// client.
func (s *rubricService) Update(ctx context.Context, id string, payload dto.RubricUpdateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	model, err := s.rubrics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	edited := models.Rubric{Name: payload.RubricName, DocType: payload.DocType}
	edited.SetCategories(payload.Categories())

	update, err := rubric.PrepareUpdate(model, edited, payload.ReasonForEdit)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	model.Name = update.RubricName
	model.DocType = update.DocType
	if !update.NameOnlyChange {
		model.SetCategories(update.Categories)
		model.IsEdited = true
		model.ReasonForEdit = update.ReasonForEdit
	}
	model.Version++

	if err := s.rubrics.Update(ctx, &model); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Str("rubric_id", id).Bool("structural", !update.NameOnlyChange).Int("version", model.Version).Msg("rubric updated")
	return dto.NewRubricResponse(model), nil
}

func (s *rubricService) Get(ctx context.Context, id string) (dto.RubricResponse, error) {
	model, err := s.rubrics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(model), nil
}

func (s *rubricService) ListByAssignment(ctx context.Context, assignmentID string) ([]dto.RubricResponse, error) {
	rubrics, err := s.rubrics.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewRubricResponseSlice(rubrics), nil
}
