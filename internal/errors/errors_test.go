package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("Missing sheets: TV"),
			want: "[VALIDATION] Missing sheets: TV",
		},
		{
			name: "with cause",
			err:  NewStorageError("save export", fmt.Errorf("disk full")),
			want: "[STORAGE] save export: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsType(t *testing.T) {
	formatErr := NewFormatError("report.xlsx")
	wrapped := fmt.Errorf("ingest: %w", formatErr)

	assert.True(t, IsType(formatErr, ErrTypeFormat))
	assert.True(t, IsType(wrapped, ErrTypeFormat))
	assert.False(t, IsType(wrapped, ErrTypeSheetRead))
	assert.False(t, IsType(stderrors.New("plain"), ErrTypeFormat))
	assert.False(t, IsType(nil, ErrTypeFormat))
}

func TestNewSheetReadError(t *testing.T) {
	cause := stderrors.New("sheet TV does not exist")
	err := NewSheetReadError("exports/a.xlsx", "TV", cause)

	assert.Equal(t, ErrTypeSheetRead, err.Type)
	assert.Equal(t, "TV", err.Context["sheet"])
	assert.Equal(t, "exports/a.xlsx", err.Context["file"])
	assert.True(t, stderrors.Is(err, cause))
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "upload rejected",
			err:        UploadRejected("Missing sheets: TV"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUploadRejected,
		},
		{
			name:       "export exists",
			err:        ExportExists("a_2024Jan-Jun.xlsx"),
			wantStatus: http.StatusConflict,
			wantType:   TypeExportExists,
		},
		{
			name:       "app validation error",
			err:        NewAppValidationError("Missing columns: Views"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUploadRejected,
		},
		{
			name:       "app conflict error",
			err:        fmt.Errorf("save: %w", NewConflictError("exists")),
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewErrorHandler(nil, false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/data/uploads", nil)

			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/data/uploads", body["instance"])
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")
}
