package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"whitecarrot/internal/common"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/proctoring"
	"whitecarrot/internal/types"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newProctorCmd() *cobra.Command {
	var cmdConfig common.CommandConfig
	cmd := &cobra.Command{
		Use:   "proctor [frames-file]",
		Short: "Replay recorded webcam frames through the proctoring heuristic",
		Long: `Replay a JSON Lines file of face detections through a fresh proctoring
session. Each line is one frame: either an array of faces or an object with a
"faces" array. A face has "topLeft" and "bottomRight" points and six
"landmarks" (right eye, left eye, nose, mouth, right ear, left ear).

The replay stops at the frame that terminates the test.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutput(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProctor(cmd, args, cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}

// parseFrames reads one frame per non-blank line
func parseFrames(content string) ([][]proctoring.Face, error) {
	var frames [][]proctoring.Face
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var faces []proctoring.Face
		if raw[0] == '{' {
			var frame struct {
				Faces []proctoring.Face `json:"faces"`
			}
			if err := json.Unmarshal(raw, &frame); err != nil {
				return nil, frameError(line, err)
			}
			faces = frame.Faces
		} else if err := json.Unmarshal(raw, &faces); err != nil {
			return nil, frameError(line, err)
		}
		frames = append(frames, faces)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read frames", err)
	}
	if len(frames) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "No frames found", nil)
	}
	return frames, nil
}

func frameError(line int, err error) error {
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Invalid frame on line %d", line), err).WithContext("line", line)
}

// replayFrames feeds frames to a new session until it terminates
func replayFrames(frames [][]proctoring.Face, thresholds proctoring.Thresholds, criticalLimit int) (types.ProctorReport, error) {
	session := proctoring.NewSession(uuid.NewString(), thresholds, criticalLimit)

	var report types.ProctorReport
	for i, faces := range frames {
		outcome, err := session.Observe(faces)
		if err != nil {
			return types.ProctorReport{}, fmt.Errorf("frame %d: %w", i+1, err)
		}
		if outcome.Terminated {
			report.TerminatedAt = i + 1
			report.Violations = outcome.Violations
			break
		}
	}

	state := session.State()
	report.Frames = state.Frames
	report.Status = state.Status
	report.CriticalCount = state.CriticalCount
	report.Alerts = state.Alerts
	return report, nil
}

func runProctor(cmd *cobra.Command, args []string, cmdConfig common.CommandConfig) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	createInput := func(contents []string) ([][]proctoring.Face, error) {
		if len(contents) != 1 {
			return nil, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return parseFrames(contents[0])
	}

	logDetails := func(frames [][]proctoring.Face, cfg common.CommandConfig) {
		logger.Info("Replaying proctoring frames", "frames", len(frames), "output_format", cfg.OutputFormat)
	}

	replay := func(_ context.Context, frames [][]proctoring.Face) (types.ProctorReport, error) {
		report, err := replayFrames(frames, proctoringThresholds(cfg.Proctoring), cfg.Proctoring.CriticalLimit)
		if err != nil {
			return report, err
		}
		if report.TerminatedAt > 0 && report.TerminatedAt < len(frames) {
			logger.Warn("Test terminated before the end of the recording",
				"terminated_at", report.TerminatedAt,
				"ignored_frames", len(frames)-report.TerminatedAt)
		}
		return report, nil
	}

	if err := common.RunFileCommand(cmd.Context(), logger, cmdConfig, args, createInput, replay, logDetails); err != nil {
		return fmt.Errorf("failed to replay frames: %w", err)
	}
	return nil
}
