package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/ocrfix/pkg/ocrfix/apply"
	"github.com/cognicore/ocrfix/pkg/ocrfix/correctionset"
)

func newApplyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply --corrections <file> <files...>",
		Short: "Rewrite text files with a correction set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags()); err != nil {
				return err
			}
			path := a.v.GetString("corrections")
			if path == "" {
				return fmt.Errorf("--corrections is required")
			}
			set, err := correctionset.Load(path)
			if err != nil {
				return err
			}
			outDir := a.v.GetString("out-dir")

			st, err := apply.New(set.Corrections).Files(args, outDir)
			if err != nil {
				return err
			}
			a.logger.Info("applied corrections", "files", len(args), "replaced", st.Replaced, "deleted", st.Deleted)
			fmt.Fprintf(cmd.OutOrStdout(), "%d replaced, %d deleted in %d files\n", st.Replaced, st.Deleted, len(args))
			return nil
		},
	}
	cmd.Flags().String("corrections", "", "correction set (JSON or YAML)")
	cmd.Flags().String("out-dir", "", "write results here instead of in place")
	return cmd
}
