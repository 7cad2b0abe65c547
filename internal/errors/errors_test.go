package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"plain error", fmt.Errorf("boom"), ErrorTypeInternal},
		{"not found", NewNotFoundError(ErrCodeJobNotFound, "job not found"), ErrorTypeNotFound},
		{"wrapped conflict", fmt.Errorf("apply: %w", NewConflictError(ErrCodeDuplicateApp, "dup")), ErrorTypeConflict},
		{"storage", NewStorageError(ErrCodeStoreSave, "save", fmt.Errorf("disk full")), ErrorTypeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}

	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewNotFoundError(ErrCodeJobNotFound, "gone"))))
	assert.False(t, IsNotFound(nil))
	assert.True(t, IsConflict(NewConflictError(ErrCodeAccountExists, "exists")))
}

func TestAppErrorMessage(t *testing.T) {
	err := NewStorageError(ErrCodeStoreSave, "failed to persist", fmt.Errorf("disk full"))
	assert.Equal(t, "STORE_SAVE_FAILED: failed to persist (caused by: disk full)", err.Error())
	assert.EqualError(t, err.Unwrap(), "disk full")

	plain := NewValidationError(ErrCodeInvalidRequest, "bad input", nil)
	assert.Equal(t, "INVALID_REQUEST: bad input", plain.Error())
}

func TestLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	err := NewNotFoundError(ErrCodeJobNotFound, "job not found").WithContext("job_id", "job-9")
	logger.LogError(fmt.Errorf("apply: %w", err), "Apply failed", "candidate_id", "c-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Apply failed", record["msg"])
	assert.Equal(t, "not_found", record["error_type"])
	assert.Equal(t, "JOB_NOT_FOUND", record["error_code"])
	assert.Equal(t, "job-9", record["job_id"])
	assert.Equal(t, "c-1", record["candidate_id"])
}

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := New(level)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}

	_, err := New("verbose")
	assert.Error(t, err)
}
