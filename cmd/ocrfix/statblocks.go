package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/ocrfix/pkg/ocrfix/progress"
	"github.com/cognicore/ocrfix/pkg/ocrfix/statblock"
)

func newStatblocksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statblocks <input.md> [output_dir]",
		Short: "Extract AD&D 2e stat blocks from OCR'd markdown",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags()); err != nil {
				return err
			}
			outDir := statblock.DefaultOutputDir
			if len(args) == 2 {
				outDir = args[1]
			}
			e := &statblock.Extractor{
				Progress: progress.NewWriter(cmd.ErrOrStderr()),
				Logger:   a.logger,
				HTML:     a.v.GetBool("html"),
			}
			res, err := e.Process(cmd.Context(), args[0], outDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d potential stat block regions\n", res.Regions)
			for _, b := range res.Blocks {
				fmt.Fprintf(out, "  Extracted: %s\n", b.Name)
			}
			if res.Combined != "" {
				fmt.Fprintf(out, "\nCombined output: %s\n", res.Combined)
			}
			fmt.Fprintf(out, "\nExtracted %d stat blocks\n", len(res.Blocks))
			return nil
		},
	}
	cmd.Flags().Bool("html", false, "also render the combined document as HTML")
	return cmd
}
