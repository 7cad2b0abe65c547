package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information - can be set during build with ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version information for whitecarrot",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "whitecarrot version %s\n", Version)
			_, _ = fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(out, "Build date: %s\n", BuildDate)
		},
	}
}
