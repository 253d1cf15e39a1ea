package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/http/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		body    any
		success bool
		code    string
		message string
	}{
		{"success", "200", map[string]string{"k": "v"}, true, "", ""},
		{"created", "201", map[string]string{"k": "v"}, true, "", ""},
		{"domain error", "404", domainerrors.NotFound("Prompt not found"), false, "NOT_FOUND", "Prompt not found"},
		{"api error", "400", &APIError{status: 400, Code: "VALIDATION", Message: "bad body"}, false, "VALIDATION", "bad body"},
		{"huma error model", "503", &huma.ErrorModel{Status: 503, Detail: "search is not available"}, false, "INTERNAL", "search is not available"},
		{"plain error", "500", errors.New("boom"), false, "INTERNAL", "boom"},
		{"nil body", "502", nil, false, "GENERATION_FAILED", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EnvelopeTransformer(nil, tt.status, tt.body)
			require.NoError(t, err)

			env, ok := out.(response.Envelope)
			require.True(t, ok)
			assert.Equal(t, EnvelopeVersion, env.V)
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.message, env.Message)
			if tt.success {
				assert.Equal(t, tt.body, env.Data)
			} else {
				assert.Nil(t, env.Data)
			}
		})
	}
}

func TestEnvelopeTransformer_DomainDetails(t *testing.T) {
	src := domainerrors.ValidationWithDetails("validation failed", map[string]string{"prompt": "is required"})

	out, err := EnvelopeTransformer(nil, "400", src)
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"v": 1,
		"success": false,
		"code": "VALIDATION",
		"message": "validation failed",
		"details": {"prompt": "is required"}
	}`, string(raw))
}

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	t.Run("unprocessable becomes bad request", func(t *testing.T) {
		err := huma.NewError(http.StatusUnprocessableEntity, "validation failed", errors.New("body.prompt: required"))
		assert.Equal(t, http.StatusBadRequest, err.GetStatus())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "VALIDATION", apiErr.Code)
		assert.Equal(t, []string{"body.prompt: required"}, apiErr.Details)
	})

	t.Run("domain error keeps its status", func(t *testing.T) {
		err := huma.NewError(http.StatusInternalServerError, "unexpected", domainerrors.NotFound("Image not found"))
		assert.Equal(t, http.StatusNotFound, err.GetStatus())
		assert.Equal(t, "Image not found", err.Error())
	})
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	h := recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prompts", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope[any](t, rec.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Contains(t, logs.String(), "kaboom")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:52100"
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
