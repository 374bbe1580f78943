package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/ocrfix/pkg/ocrfix/store"
	"github.com/cognicore/ocrfix/pkg/ocrfix/store/sqlite"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded learning runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(st store.Store) error {
				runs, err := st.ListRuns(cmd.Context(), a.v.GetInt("limit"))
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN ID\tGENERATED\tTHRESHOLD\tFILES\tTOKENS\tCORRECTIONS\tCORPUS")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d\t%d\t%d\t%s\n",
						r.ID, r.Generated.Format(time.RFC3339), r.Threshold,
						r.Files, r.UniqueTokens, r.CorrectionsCount, r.CorpusRoot)
				}
				return tw.Flush()
			})
		},
	}
	cmd.PersistentFlags().String("db", "ocrfix.db", "sqlite run history")
	cmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <run_id>",
			Short: "Show one run and its corrections",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(st store.Store) error {
					r, err := st.GetRun(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Run:        %s\n", r.ID)
					fmt.Fprintf(out, "Generated:  %s\n", r.Generated.Format(time.RFC3339))
					fmt.Fprintf(out, "Corpus:     %s\n", r.CorpusRoot)
					fmt.Fprintf(out, "Output:     %s\n", r.Output)
					fmt.Fprintf(out, "Settings:   threshold < %g, min occurrences %d\n", r.Threshold, r.MinOccurrences)
					fmt.Fprintf(out, "Scanned:    %d files, %d unique tokens, %d instances\n", r.Files, r.UniqueTokens, r.TotalInstances)
					fmt.Fprintf(out, "\nCorrections (%d):\n", len(r.Corrections))
					for _, c := range r.Corrections {
						target := c.Target
						if target == "" {
							target = "(delete)"
						}
						fmt.Fprintf(out, "  %-20s → %s\n", c.Source, target)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "token <token>",
			Short: "Show how a token fared across runs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(st store.Store) error {
					obs, err := st.TokenHistory(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "RUN ID\tGENERATED\tCOUNT\tAVG CONF\tCORRECTION")
					for _, o := range obs {
						corr := "-"
						if o.Corrected {
							corr = o.Target
							if corr == "" {
								corr = "(delete)"
							}
						}
						fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%s\n",
							o.RunID, o.Generated.Format(time.RFC3339), o.Count, o.MeanConfidence, corr)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

func (a *app) withStore(cmd *cobra.Command, fn func(store.Store) error) error {
	if err := a.bind(cmd.Flags()); err != nil {
		return err
	}
	st, err := sqlite.OpenSQLite(cmd.Context(), a.v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer st.Close()
	return fn(st)
}
