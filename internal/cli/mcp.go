package cli

import (
	"whitecarrot/internal/mcpserver"

	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve read-only ATS tools to MCP clients over stdio",
		Long: `Run a Model Context Protocol server on stdin and stdout. The server exposes
the search_jobs, score_match and get_application tools over the configured
store. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := dependencies(cmd)
			if err != nil {
				return err
			}

			svc, closeService, err := openService(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer closeWithLog(logger, closeService)

			logger.Info("Starting MCP server", "name", mcpserver.ServerName, "version", Version)
			return mcpserver.Serve(svc, Version, logger)
		},
	}
}
