package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/internal/dto"
	"github.com/Rithvik985/situated-learning-api/internal/handler"
	"github.com/Rithvik985/situated-learning-api/internal/service"
	"github.com/Rithvik985/situated-learning-api/internal/stream"
)

type mockStreamingGenerationService struct {
	mockGenerationService
	stream io.ReadCloser
	err    error
}

func (m *mockStreamingGenerationService) GenerateProgressive(context.Context, dto.GenerateAssignmentsRequest) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func newGenerationApp(svc service.GenerationService) *fiber.App {
	app := fiber.New()
	handler.NewGenerationHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/generation"))
	return app
}

func generationRequestBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(dto.GenerateAssignmentsRequest{
		CourseName:   "Industrial Automation",
		CourseCode:   "IA-401",
		AcademicYear: "2026-2027",
		Semester:     7,
		Topics:       []string{"PLC programming"},
		Domains:      []string{"manufacturing"},
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestGenerationHandler_ProgressiveRelaysStream(t *testing.T) {
	var produced bytes.Buffer
	emitter := stream.NewEmitter(&produced)
	require.NoError(t, emitter.Progress(0, 2, "starting"))
	require.NoError(t, emitter.Assignment(map[string]string{"id": "a-1", "title": "Line Balancing"}, 1, 2))
	require.NoError(t, emitter.Assignment(map[string]string{"id": "a-2", "title": "Fault Diagnosis"}, 2, 2))
	require.NoError(t, emitter.Complete(2, "done"))

	svc := &mockStreamingGenerationService{stream: io.NopCloser(bytes.NewReader(produced.Bytes()))}
	app := newGenerationApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generation/generate-progressive", generationRequestBody(t))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	relayed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, produced.String(), string(relayed))

	lines := strings.Split(strings.TrimSpace(string(relayed)), "\n")
	require.Len(t, lines, 4)
}

func TestGenerationHandler_ProgressiveRelaysPartialStreamOnError(t *testing.T) {
	var produced bytes.Buffer
	emitter := stream.NewEmitter(&produced)
	require.NoError(t, emitter.Assignment(map[string]string{"id": "a-1"}, 1, 2))
	require.NoError(t, emitter.Error("backend unavailable"))

	svc := &mockStreamingGenerationService{stream: io.NopCloser(bytes.NewReader(produced.Bytes()))}
	app := newGenerationApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generation/generate-progressive", generationRequestBody(t))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	relayed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(relayed), `"assignment"`)
	require.Contains(t, string(relayed), "backend unavailable")
}

func TestGenerationHandler_EditAssignmentMissing(t *testing.T) {
	app := newGenerationApp(&mockEditFailingGenerationService{err: service.ErrAssignmentNotFound})

	body, err := json.Marshal(dto.AssignmentEditRequest{Title: "New", Description: "Desc", ReasonForChange: "typo"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/generation/assignments/missing", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

type mockEditFailingGenerationService struct {
	mockGenerationService
	err error
}

func (m *mockEditFailingGenerationService) EditAssignment(context.Context, string, dto.AssignmentEditRequest) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, m.err
}

func TestGenerationHandler_Domains(t *testing.T) {
	app := newGenerationApp(&mockStreamingGenerationService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/generation/domains", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}