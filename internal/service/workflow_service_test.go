package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/repository"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

func workflowTestService(t *testing.T) WorkflowService {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := repository.NewSessionStore(client, time.Minute)
	return NewWorkflowService(store, zerolog.Nop())
}

func TestWorkflowSessionLifecycle(t *testing.T) {
	svc := workflowTestService(t)

	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, workflow.StepCourse, created.CurrentStep)
	require.Empty(t, created.CompletedSteps)

	loaded, err := svc.GetSession(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)

	require.NoError(t, svc.DeleteSession(context.Background(), created.ID))
	_, err = svc.GetSession(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestApplyCommandAdvancesAndPersists(t *testing.T) {
	svc := workflowTestService(t)
	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	after, err := svc.ApplyCommand(context.Background(), created.ID, workflow.SelectCourse{CourseID: "course-1"})
	require.NoError(t, err)
	require.Equal(t, "course-1", after.CourseID)
	require.Contains(t, after.CompletedSteps, workflow.StepCourse)

	after, err = svc.ApplyCommand(context.Background(), created.ID, workflow.GoToStep{Step: workflow.StepAssignment})
	require.NoError(t, err)
	require.Equal(t, workflow.StepAssignment, after.CurrentStep)

	reloaded, err := svc.GetSession(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "course-1", reloaded.CourseID)
}

func TestApplyCommandDiscardsStaleEvaluations(t *testing.T) {
	svc := workflowTestService(t)
	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	// A result recorded under a superseded epoch is dropped without error.
	after, err := svc.ApplyCommand(context.Background(), created.ID, workflow.RecordEvaluations{
		Epoch:         41,
		EvaluationIDs: []string{"eval-1"},
	})
	require.NoError(t, err)
	require.Empty(t, after.EvaluationIDs)
}

func TestApplyCommandDiscardsResultsAfterReselection(t *testing.T) {
	svc := workflowTestService(t)
	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = svc.ApplyCommand(context.Background(), created.ID, workflow.SelectCourse{CourseID: "course-1"})
	require.NoError(t, err)
	_, err = svc.ApplyCommand(context.Background(), created.ID, workflow.SelectAssignment{AssignmentID: "assignment-1"})
	require.NoError(t, err)

	opened, err := svc.ApplyCommand(context.Background(), created.ID, workflow.BeginEvaluationRound{})
	require.NoError(t, err)
	epoch := opened.EvaluationEpoch

	// Switching assignments supersedes the round opened above.
	_, err = svc.ApplyCommand(context.Background(), created.ID, workflow.SelectAssignment{AssignmentID: "assignment-2"})
	require.NoError(t, err)

	after, err := svc.ApplyCommand(context.Background(), created.ID, workflow.RecordEvaluations{
		Epoch:         epoch,
		EvaluationIDs: []string{"eval-1"},
	})
	require.NoError(t, err)
	require.Empty(t, after.EvaluationIDs)
	require.NotContains(t, after.CompletedSteps, workflow.StepEvaluate)
}

func TestApplyCommandUnknownSession(t *testing.T) {
	svc := workflowTestService(t)

	_, err := svc.ApplyCommand(context.Background(), "missing", workflow.GoToStep{Step: workflow.StepCourse})
	require.ErrorIs(t, err, ErrSessionNotFound)
}
