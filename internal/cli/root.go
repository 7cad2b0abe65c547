package cli

import (
	"context"
	"fmt"

	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitecarrot",
		Short: "Applicant tracking system backend",
		Long: `WhiteCarrot is a demo applicant tracking system. It serves the REST API used
by company careers pages, candidates and recruiters, screens applications by
skill match, proctors coding tests and can be queried by MCP clients.

The remaining commands run the same screening and proctoring logic offline
against the configured store or local JSON files.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newScoreCmd(),
		newAnalyzeCmd(),
		newJobsCmd(),
		newProctorCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return cmd
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = withDependencies(ctx, cfg, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func withDependencies(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok && logger != nil {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

func dependencies(cmd *cobra.Command) (*config.Config, *errors.Logger, error) {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
