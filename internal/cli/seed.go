package cli

import (
	"fmt"

	"whitecarrot/internal/store"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo companies, jobs and candidates into the store",
		Long: `Write the demo data set to the configured store. A store that already holds
companies is left untouched unless --force is given, which replaces every
collection with the demo data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace existing data with the demo data")
	return cmd
}

func runSeed(cmd *cobra.Command, force bool) error {
	cfg, logger, err := dependencies(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(cmd.Context(), cfg, logger, nil, false)
	if err != nil {
		return err
	}
	defer closeWithLog(logger, st.Close)

	current, err := st.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	if len(current.Companies) > 0 && !force {
		logger.Info("Store already holds data, skipping seed", "companies", len(current.Companies))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Store already holds %d companies; use --force to replace them\n", len(current.Companies))
		return nil
	}

	if err := st.Reset(cmd.Context()); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	seeded, err := st.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("Store seeded", "backend", cfg.Store.Backend, "forced", force)
	printSeedSummary(cmd, seeded)
	return nil
}

func printSeedSummary(cmd *cobra.Command, d *store.Data) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"Seeded %d companies, %d jobs, %d candidates, %d applications, %d recruiters, %d coding questions\n",
		len(d.Companies), len(d.Jobs), len(d.Candidates), len(d.Applications), len(d.Recruiters), len(d.DSAQuestions))
}
