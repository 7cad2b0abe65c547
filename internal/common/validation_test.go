package common

import (
	"testing"

	"whitecarrot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{
			name:          "unknown format",
			format:        "xml",
			supported:     supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:          "case sensitive",
			format:        "JSON",
			supported:     supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:          "empty format",
			format:        "",
			supported:     supported,
			expectedError: "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{name: "no restrictions", format: "xml", supported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
		})
	}
}

func TestResolveOutputFormat(t *testing.T) {
	cfg := CommandConfig{}
	require.NoError(t, ResolveOutputFormat(&cfg, "text", []string{"json", "text"}))
	assert.Equal(t, "text", cfg.OutputFormat)

	cfg = CommandConfig{OutputFormat: "markdown"}
	assert.Error(t, ResolveOutputFormat(&cfg, "text", []string{"json", "text"}))
}
