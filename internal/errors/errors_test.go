package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeServiceUnavail, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").StatusCode)
		})
	}
}

func TestWriteError_AppError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	rec := httptest.NewRecorder()

	cause := stderrors.New("row 3")
	WriteError(rec, logger, ValidationWrap(cause, "Row 3: missing 'price' value."), "req-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{
		"error":      "Row 3: missing 'price' value.",
		"code":       "VALIDATION_ERROR",
		"request_id": "req-1",
	}, body)

	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"error_code":"VALIDATION_ERROR"`)
}

func TestWriteError_HidesUnknownErrors(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	rec := httptest.NewRecorder()

	WriteError(rec, logger, stderrors.New("dial tcp: secret host"), "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MessageInternal, body.Error)
	assert.Equal(t, CodeInternal, body.Code)
	assert.NotContains(t, rec.Body.String(), "secret host")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := InternalWrap(cause, "failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INTERNAL_ERROR: failed (caused by: boom)", err.Error())
	assert.Equal(t, "NOT_FOUND: gone", NotFound("gone").Error())
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"status":"healthy"},"success":true}`, rec.Body.String())
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()

	err := WriteJSON(rec, http.StatusOK, map[string]float64{"total_revenue": math.Inf(1)})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MessageInternal, body.Error)
	assert.Equal(t, CodeInternal, body.Code)
}

func TestWriteJSON_WritesStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
