package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/ocrfix/pkg/ocrfix"
	"github.com/cognicore/ocrfix/pkg/ocrfix/config"
	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

func newLearnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn <corpus_root>",
		Short: "Build a correction set from low-confidence OCR reports",
		Long: `Scans <corpus_root>/<chapter>/.temp/*-lowconf.txt, aggregates the tokens below
the confidence threshold and writes a correction set (JSON, or YAML for
.yaml/.yml outputs).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings(cmd)
			if err != nil {
				return err
			}
			root := args[0]
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			l, err := ocrfix.Open(ctx, root, s, a.logger)
			if err != nil {
				return err
			}
			defer l.Close()

			res, err := l.Run(ctx)
			if errors.Is(err, internalerr.ErrCorpusMissing) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: Directory not found: %s\n", root)
				return errReported
			}
			if err != nil {
				return err
			}

			if !s.Quiet {
				if err := l.Report(ctx, out, res); err != nil {
					return err
				}
			}
			if err := res.Set.Write(s.Output); err != nil {
				return err
			}
			fmt.Fprintf(out, "✨ Corrections saved to %s\n", s.Output)
			fmt.Fprintf(out, "   %d corrections generated\n", len(res.Set.Corrections))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64("threshold", config.DefaultThreshold, "confidence threshold (tokens below it are analyzed)")
	f.Int("min-occur", config.DefaultMinOccurrences, "minimum occurrences before a correction is suggested")
	f.String("output", config.DefaultOutput, "output file (.json, .yaml or .yml)")
	f.Bool("quiet", false, "suppress the analysis report")
	f.String("tables", "", "YAML file extending the built-in correction tables")
	f.Bool("replace-tables", false, "use --tables instead of the built-in tables")
	f.String("dictionary", "", "word list used to validate repairs")
	f.String("redis-addr", "", "Redis address of the custom dictionary")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("redis-key", config.DefaultRedisKey, "Redis set holding custom words")
	f.String("db", "", "sqlite file recording run history")
	f.Bool("hocr", false, "also read *.hocr files for word confidences")
	return cmd
}
