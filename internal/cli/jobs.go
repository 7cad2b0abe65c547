package cli

import (
	"whitecarrot/internal/careers"
	"whitecarrot/internal/common"
	"whitecarrot/internal/types"

	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	var (
		cmdConfig common.CommandConfig
		filter    careers.Filter
		jobTypes  []string
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Search open jobs across all companies",
		Long: `List the jobs in the store. --query matches the title or any skill,
--location matches part of the location and --type keeps the given contract
types (Full-time, Part-time, Contract, Remote). Filters combine.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveOutput(cmd, &cmdConfig)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Types = careers.ParseTypes(jobTypes...)
			return runJobs(cmd, filter, cmdConfig)
		},
	}
	addOutputFlags(cmd, &cmdConfig)
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Text matched against the title and the skills")
	cmd.Flags().StringVarP(&filter.Location, "location", "l", "", "Part of the job location")
	cmd.Flags().StringSliceVarP(&jobTypes, "type", "t", nil, "Job types to keep, comma separated")
	cmd.Flags().StringVar(&filter.CompanyID, "company", "", "Restrict to one company id")
	return cmd
}

func runJobs(cmd *cobra.Command, filter careers.Filter, cmdConfig common.CommandConfig) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	svc, closeService, err := openService(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeWithLog(logger, closeService)

	jobs, err := svc.SearchJobs(cmd.Context(), filter)
	if err != nil {
		return err
	}
	logger.Debug("Job search completed", "query", filter.Query, "location", filter.Location, "results", len(jobs))

	return common.NewOutputHandler(logger).HandleOutput(types.JobListing{
		Query:    filter.Query,
		Location: filter.Location,
		Count:    len(jobs),
		Jobs:     jobs,
	}, cmdConfig)
}
