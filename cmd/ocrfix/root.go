package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cognicore/ocrfix/pkg/ocrfix/config"
	"github.com/cognicore/ocrfix/pkg/ocrfix/internalerr"
)

// errReported is returned after a command has already printed its own error.
var errReported = errors.New("error already reported")

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: slog.Default()}

	root := &cobra.Command{
		Use:   "ocrfix",
		Short: "Learn and apply OCR correction dictionaries",
		Long: `ocrfix mines the low-confidence word reports an OCR pipeline leaves behind
and turns them into a correction dictionary for later cleanup passes.

Commands:
  - learn: aggregate low-confidence tokens and build a correction set
  - apply: rewrite text files with a correction set
  - statblocks: extract AD&D 2e stat blocks from OCR'd markdown
  - dict: manage the Redis custom dictionary
  - history: inspect recorded learning runs`,
		Version:       gitRelease,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newLearnCmd(a),
		newApplyCmd(a),
		newStatblocksCmd(a),
		newDictCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

// init wires viper to the config file and OCRFIX_* environment, then builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("OCRFIX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := a.v.BindPFlag("log-level", cmd.Flag("log-level")); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("%w: log-level: %v", internalerr.ErrInvalidConfig, err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// bind makes the running command's flags visible through viper. Only the
// executing command is bound so flags shared by name do not shadow each other.
func (a *app) bind(flags *pflag.FlagSet) error {
	return a.v.BindPFlags(flags)
}

// settings resolves the learning run settings from flags, env and config file.
func (a *app) settings(cmd *cobra.Command) (config.Settings, error) {
	if err := a.bind(cmd.Flags()); err != nil {
		return config.Settings{}, err
	}
	s := config.DefaultSettings()
	if err := a.v.Unmarshal(&s); err != nil {
		return config.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, s.Validate()
}
