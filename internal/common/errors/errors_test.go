package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("APPLICATION_NOT_FOUND")

func TestStandardError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StandardError
		want int
	}{
		{NewValidationFailedError(map[string]string{"moaFile": "This field is required"}), http.StatusUnprocessableEntity},
		{NewInvalidRequestError(stderrors.New("bad json")), http.StatusBadRequest},
		{NewApplicationNotFoundError(4, errSentinel), http.StatusNotFound},
		{NewDocumentUploadFailedError("moaFile", stderrors.New("timeout")), http.StatusBadGateway},
		{NewDatabaseInsertFailedError(stderrors.New("deadlock")), http.StatusInternalServerError},
		{NewInternalError(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("%w: id 4", errSentinel)
	err := fmt.Errorf("load: %w", NewApplicationNotFoundError(4, wrapped))

	assert.True(t, stderrors.Is(err, errSentinel))

	stdErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeApplicationNotFound, stdErr.Code)
}

func TestNormalize(t *testing.T) {
	plain := stderrors.New("unexpected")
	assert.Equal(t, ErrCodeInternal, Normalize(plain).Code)

	known := NewQueryExecutionFailedError("get", plain)
	assert.Same(t, known, Normalize(known))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewDatabaseUpdateFailedError(stderrors.New("lock timeout")))
	assert.Equal(t, "DATABASE_UPDATE_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.Equal(t, "DATABASE_UPDATE_FAILED", bpmn.ToErrorVariables()["originalErrorCode"])

	notFound := ConvertToBPMNError(NewApplicationNotFoundError(1, errSentinel))
	assert.Equal(t, 0, notFound.Retries)
	assert.False(t, notFound.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeDocumentUploadFailed))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeApplicationNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeApplicationValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
