package cli

import (
	"context"
	"fmt"

	"whitecarrot/internal/common"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/types"

	"github.com/spf13/cobra"
)

type scoreInput struct {
	Job       domain.Job
	Candidate domain.Candidate
}

func newScoreCmd() *cobra.Command {
	var (
		cmdConfig common.CommandConfig
		infer     bool
	)
	cmd := &cobra.Command{
		Use:   "score [job-file] [candidate-file]",
		Short: "Score a candidate against a job and show the screening decision",
		Long: `Compute the skill match between a job and a candidate, both given as JSON
documents in the stored format, and apply the configured screening thresholds.

With --infer, a job without a skills list gets the skills named in its title
and description, as happens when a recruiter posts it.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutput(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args, cmdConfig, infer)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	cmd.Flags().BoolVar(&infer, "infer", false, "Infer job skills from the title and description when none are listed")
	return cmd
}

func runScore(cmd *cobra.Command, args []string, cmdConfig common.CommandConfig, infer bool) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	screener := matching.NewScreener(matching.Thresholds{
		RejectBelow:    cfg.Screening.RejectBelow,
		FastTrackAbove: cfg.Screening.FastTrackAbove,
	})

	createInput := func(contents []string) (scoreInput, error) {
		if len(contents) != 2 {
			return scoreInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		job, err := common.DecodeJSON[domain.Job](contents[0], "job")
		if err != nil {
			return scoreInput{}, err
		}
		candidate, err := common.DecodeJSON[domain.Candidate](contents[1], "candidate")
		if err != nil {
			return scoreInput{}, err
		}
		if infer && len(job.Skills) == 0 {
			job.Skills = matching.InferSkills(job.Title, job.Description+" "+job.DetailedJobDescription)
		}
		return scoreInput{Job: job, Candidate: candidate}, nil
	}

	logDetails := func(input scoreInput, cfg common.CommandConfig) {
		logger.Info("Scoring candidate",
			"job_skills", len(input.Job.Skills),
			"candidate_skills", len(input.Candidate.Skills),
			"output_format", cfg.OutputFormat)
	}

	scoreOperation := func(_ context.Context, input scoreInput) (types.ScoreReport, error) {
		screening := screener.Screen(input.Job, input.Candidate)
		return types.ScoreReport{
			JobTitle:      input.Job.Title,
			CandidateName: input.Candidate.Name,
			Match:         screening.Match,
			Status:        screening.Status,
			Summary:       screening.Summary,
			Reason:        screening.Reason,
			FastTrack:     screening.FastTrack,
			RejectBelow:   screener.Thresholds().RejectBelow,
		}, nil
	}

	if err := common.RunFileCommand(cmd.Context(), logger, cmdConfig, args, createInput, scoreOperation, logDetails); err != nil {
		return fmt.Errorf("failed to score candidate: %w", err)
	}
	return nil
}
