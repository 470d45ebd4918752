package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/observability"
	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

// ErrSessionNotFound indicates no workflow session exists for the id.
var ErrSessionNotFound = repository.ErrSessionNotFound

// WorkflowService owns the session lifecycle and the single command path
// through which every session mutation flows.
type WorkflowService interface {
	CreateSession(ctx context.Context) (dto.SessionResponse, error)
	GetSession(ctx context.Context, id string) (dto.SessionResponse, error)
	ApplyCommand(ctx context.Context, id string, cmd workflow.Command) (dto.SessionResponse, error)
	DeleteSession(ctx context.Context, id string) error
}

type workflowService struct {
	sessions repository.SessionStore
	logger   zerolog.Logger
}

// NewWorkflowService builds the workflow service.
func NewWorkflowService(sessions repository.SessionStore, logger zerolog.Logger) WorkflowService {
	return &workflowService{
		sessions: sessions,
		logger:   logger.With().Str("component", "workflow_service").Logger(),
	}
}

func (s *workflowService) CreateSession(ctx context.Context) (dto.SessionResponse, error) {
	session := workflow.NewSession()
	if err := s.sessions.Save(ctx, session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Str("session_id", session.ID).Msg("workflow session created")
	return dto.NewSessionResponse(session), nil
}

func (s *workflowService) GetSession(ctx context.Context, id string) (dto.SessionResponse, error) {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.NewSessionResponse(session), nil
}

// ApplyCommand loads the session, applies one command, and persists the
// result. A stale evaluation result is not an error to the caller: the
// command is discarded, logged, and the unchanged session returned.
func (s *workflowService) ApplyCommand(ctx context.Context, id string, cmd workflow.Command) (dto.SessionResponse, error) {
	session, err := s.sessions.Load(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	stepBefore := session.CurrentStep
	completedBefore := len(session.Completed)

	if err := session.Apply(cmd); err != nil {
		if errors.Is(err, workflow.ErrStaleResult) {
			observability.StaleResults().WithLabelValues("evaluation").Inc()
			s.logger.Warn().Str("session_id", id).Msg("discarded stale evaluation result")
			return dto.NewSessionResponse(session), nil
		}
		return dto.SessionResponse{}, err
	}

	if len(session.Completed) < completedBefore {
		observability.WorkflowInvalidations().WithLabelValues(strconv.Itoa(session.CurrentStep)).Inc()
	}
	if session.CurrentStep != stepBefore {
		observability.WorkflowSteps().WithLabelValues(strconv.Itoa(session.CurrentStep)).Inc()
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.NewSessionResponse(session), nil
}

func (s *workflowService) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}
