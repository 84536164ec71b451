// Package cmd implements the houseprice command line: the web server and an
// offline prediction command sharing one configuration.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/houseprice/config"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/regressor"
)

// Version is reported to Sentry as the release. Set with -ldflags.
var Version = "dev"

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	envFiles  []string
	logLevel  string
	logFormat string
	modelPath string

	cfg *config.Config
}

func (a *app) adapter() *regressor.Adapter {
	return regressor.NewAdapter(a.cfg.ModelPath,
		regressor.WithIDColumn(a.cfg.IDColumn),
		regressor.WithTargetColumn(a.cfg.TargetColumn),
		regressor.WithLogger(log.GetLoggerWithName("regressor")))
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "houseprice",
		Short:         "House price prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFiles...)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel = a.logLevel
			}
			if flags.Changed("log-format") {
				cfg.LogFormat = a.logFormat
			}
			if flags.Changed("model") {
				cfg.ModelPath = a.modelPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := log.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load before reading HOUSEPRICE_* variables")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "json", "log format (json, console)")
	pf.StringVar(&a.modelPath, "model", "", "model artifact path (LightGBM text or JSON)")

	cmd.AddCommand(newServeCmd(a), newPredictCmd(a), newDescribeCmd(a))
	return cmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
