package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/handler"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/internal/workflow"
)

type mockWorkflowService struct {
	session dto.SessionResponse
	lastCmd workflow.Command
	err     error
	deleted []string
}

func (m *mockWorkflowService) CreateSession(context.Context) (dto.SessionResponse, error) {
	return m.session, m.err
}

func (m *mockWorkflowService) GetSession(_ context.Context, id string) (dto.SessionResponse, error) {
	if m.err != nil {
		return dto.SessionResponse{}, m.err
	}
	return m.session, nil
}

func (m *mockWorkflowService) ApplyCommand(_ context.Context, _ string, cmd workflow.Command) (dto.SessionResponse, error) {
	m.lastCmd = cmd
	if m.err != nil {
		return dto.SessionResponse{}, m.err
	}
	return m.session, nil
}

func (m *mockWorkflowService) DeleteSession(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func newWorkflowApp(svc service.WorkflowService) *fiber.App {
	app := fiber.New()
	handler.NewWorkflowHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/workflow"))
	return app
}

func TestWorkflowHandler_CreateSession(t *testing.T) {
	svc := &mockWorkflowService{session: dto.SessionResponse{ID: "s-1", CurrentStep: 1}}
	app := newWorkflowApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/workflow/sessions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                `json:"success"`
		Data    dto.SessionResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "s-1", body.Data.ID)
}

func TestWorkflowHandler_GetUnknownSession(t *testing.T) {
	svc := &mockWorkflowService{err: service.ErrSessionNotFound}
	app := newWorkflowApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/workflow/sessions/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWorkflowHandler_ApplyCommand(t *testing.T) {
	svc := &mockWorkflowService{session: dto.SessionResponse{ID: "s-1", CurrentStep: 2}}
	app := newWorkflowApp(svc)

	payload := dto.CommandRequest{Type: "go_to_step", Payload: json.RawMessage(`{"step":2}`)}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow/sessions/s-1/commands", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	goTo, ok := svc.lastCmd.(workflow.GoToStep)
	require.True(t, ok)
	require.Equal(t, workflow.StepAssignment, goTo.Step)
}

func TestWorkflowHandler_ApplyUnknownCommandType(t *testing.T) {
	svc := &mockWorkflowService{}
	app := newWorkflowApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow/sessions/s-1/commands",
		bytes.NewReader([]byte(`{"type":"reticulate_splines"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, svc.lastCmd)
}

func TestWorkflowHandler_DeleteSession(t *testing.T) {
	svc := &mockWorkflowService{}
	app := newWorkflowApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/workflow/sessions/s-1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"s-1"}, svc.deleted)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
