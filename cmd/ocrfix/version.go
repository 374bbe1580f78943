package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release time.
var (
	gitRelease    = "dev"
	gitCommit     = "unknown"
	gitCommitDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ocrfix %s\n", gitRelease)
			fmt.Fprintf(out, "  Go:     %s\n", runtime.Version())
			fmt.Fprintf(out, "  Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "  Date:   %s\n", gitCommitDate)
		},
	}
}
