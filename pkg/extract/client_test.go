package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Rithvik985/situated-learning-api/pkg/extract"
)

func TestExtractDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "essay.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","extracted_text":"hello","extraction_method":"pdfplumber","confidence":0.93}`))
	}))
	defer server.Close()

	client := extract.New(server.URL, time.Second, zerolog.Nop())
	result, err := client.Extract(context.Background(), "essay.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	require.Equal(t, "hello", result.ExtractedText)
	require.Equal(t, "pdfplumber", result.Method)
}

func TestExtractSurfacesBackendDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"password protected pdf"}`))
	}))
	defer server.Close()

	client := extract.New(server.URL, time.Second, zerolog.Nop())
	_, err := client.Extract(context.Background(), "essay.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)

	var backendErr *extract.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, http.StatusUnprocessableEntity, backendErr.StatusCode)
	require.Equal(t, "password protected pdf", backendErr.Detail)
}
