package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"whitecarrot/internal/errors"
	"whitecarrot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *errors.Logger {
	return errors.NewLoggerTo(io.Discard, slog.LevelError)
}

type skillsDoc struct {
	Skills []string `json:"skills"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRunFileCommand(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.json", `{"skills":["Go","SQL"]}`)
	candidate := writeFile(t, dir, "candidate.json", `{"skills":["go"]}`)

	createInput := func(contents []string) ([2]skillsDoc, error) {
		var in [2]skillsDoc
		for i, c := range contents {
			doc, err := DecodeJSON[skillsDoc](c, "input")
			if err != nil {
				return in, err
			}
			in[i] = doc
		}
		return in, nil
	}
	operation := func(_ context.Context, in [2]skillsDoc) (types.JobListing, error) {
		return types.JobListing{Count: len(in[0].Skills) + len(in[1].Skills)}, nil
	}

	t.Run("writes to stdout writer", func(t *testing.T) {
		var out bytes.Buffer
		cfg := CommandConfig{OutputFormat: "json", Stdout: &out}
		var logged bool
		err := RunFileCommand(context.Background(), quietLogger(), cfg, []string{job, candidate}, createInput, operation,
			func(in [2]skillsDoc, _ CommandConfig) { logged = true })
		require.NoError(t, err)
		assert.True(t, logged)
		assert.JSONEq(t, `{"count":3,"jobs":null}`, out.String())
	})

	t.Run("writes to output file", func(t *testing.T) {
		target := filepath.Join(dir, "out", "report.txt")
		cfg := CommandConfig{OutputFormat: "text", OutputFile: target}
		require.NoError(t, RunFileCommand(context.Background(), quietLogger(), cfg, []string{job, candidate}, createInput, operation, nil))

		written, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(written), "=== JOBS (3) ===")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := CommandConfig{OutputFormat: "json", Stdout: io.Discard}
		err := RunFileCommand(context.Background(), quietLogger(), cfg, []string{filepath.Join(dir, "nope.json")}, createInput, operation, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.json", `{"skills":`)
		cfg := CommandConfig{OutputFormat: "json", Stdout: io.Discard}
		err := RunFileCommand(context.Background(), quietLogger(), cfg, []string{bad}, createInput, operation, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid input JSON")
	})
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	handler := NewOutputHandler(quietLogger())
	err := handler.HandleOutput(types.ScoreReport{}, CommandConfig{OutputFormat: "yaml", Stdout: io.Discard})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestFileProcessorWriteFile(t *testing.T) {
	fp := NewFileProcessor(quietLogger())
	target := filepath.Join(t.TempDir(), "a", "b.md")
	require.NoError(t, fp.WriteFile(target, "# hi"))

	content, err := fp.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "# hi", content)

	_, err = fp.ReadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, errors.ErrorTypeIO, errors.TypeOf(err))
}
