package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"validation", NewValidationError("topic is required"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("node 42"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("stale version"), ErrorTypeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError(""), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"generation", NewGenerationError(cause), ErrorTypeGeneration, http.StatusInternalServerError},
		{"persistence", NewPersistenceError("save", cause), ErrorTypePersistence, http.StatusInternalServerError},
		{"unavailable", NewUnavailableError("llm"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.True(t, IsType(tt.err, tt.typ))
		})
	}
}

func TestGenerationErrorHidesCause(t *testing.T) {
	cause := stderrors.New("unexpected token < in JSON")
	err := NewGenerationError(cause)

	assert.Equal(t, GenerationFailedMessage, err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestWrapKeepsAppError(t *testing.T) {
	original := NewNotFoundError("node x")
	wrapped := Wrap(original, "expand")
	assert.True(t, IsNotFound(wrapped))

	plain := Wrap(stderrors.New("io"), "load")
	assert.True(t, IsType(plain, ErrorTypeInternal))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error uses its status and message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		h.Handle(rec, req, NewGenerationError(stderrors.New("provider down")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, GenerationFailedMessage, body.Error)
		assert.Equal(t, "GENERATION", body.Type)
		assert.Nil(t, body.Details)
	})

	t.Run("plain error is flattened", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/neo4j/all", nil)
		h.Handle(rec, req, stderrors.New("secret connection string"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("panic middleware recovers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil map")
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
