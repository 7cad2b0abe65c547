package cli

import (
	"fmt"

	"whitecarrot/internal/common"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/types"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var cmdConfig common.CommandConfig
	cmd := &cobra.Command{
		Use:   "analyze [application-id]",
		Short: "Analyze a stored application and record the breakdown",
		Long: `Analyze an application against its job. The analysis lists the matched
and missing skills with improvement suggestions and is written back to the
application, replacing the one-line screening summary.

An applied application whose match is above the fast-track threshold is moved
to selected.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutput(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	return cmd
}

func runAnalyze(cmd *cobra.Command, id string, cmdConfig common.CommandConfig) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	svc, closeService, err := openService(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeWithLog(logger, closeService)

	logger.Info("Starting application analysis", "application_id", id, "output_format", cmdConfig.OutputFormat)

	app, err := svc.AnalyzeApplication(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to analyze application: %w", err)
	}
	if app.AIAnalysis == nil || app.AIAnalysis.Detail == nil {
		return errors.NewNotFoundError(errors.ErrCodeJobNotFound,
			fmt.Sprintf("Application %s references a job or candidate that no longer exists", id))
	}

	report := types.ApplicationReport{
		ApplicationID: app.ID,
		Status:        app.Status,
		Analysis:      *app.AIAnalysis.Detail,
	}
	if app.Score != nil {
		report.Score = *app.Score
	}
	if job, err := svc.Store().GetJob(cmd.Context(), app.JobID); err == nil {
		report.JobTitle = job.Title
	}
	if candidate, err := svc.Store().GetCandidate(cmd.Context(), app.CandidateID); err == nil {
		report.CandidateName = candidate.Name
	}

	if err := common.NewOutputHandler(logger).HandleOutput(report, cmdConfig); err != nil {
		return err
	}
	logger.Info("Application analysis completed successfully", "application_id", id, "status", app.Status)
	return nil
}
