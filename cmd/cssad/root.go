package main

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/cssadmkl/pkg/errors"
	"github.com/YuminosukeSato/cssadmkl/pkg/log"
)

const envPrefix = "CSSAD"

// app carries the configuration shared by every command.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "cssad",
		Short: "Semi-supervised anomaly detection with multiple kernels",
		Long: `cssad trains and applies a convex semi-supervised anomaly detector
(CSSAD-MKL) on CSV data. Rows are samples; an optional label column holds
1 (normal), -1 (outlier) or 0 (unlabeled).

Every flag can also be set in the --config file or through CSSAD_<FLAG>
environment variables (dashes become underscores).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.Bool("json-logs", false, "write JSON logs instead of console output")

	root.AddCommand(newTrainCmd(a), newScoreCmd(a), newBaselineCmd(a))
	return root
}

// setup binds flags, reads the config file and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind flags")
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
	}
	return a.setupLogging(cmd)
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	level := a.v.GetString("log-level")
	if a.v.GetBool("json-logs") {
		return log.SetupLoggerTo(cmd.ErrOrStderr(), level)
	}

	zlevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || zlevel == zerolog.NoLevel {
		return errors.NewValidationError("log-level", "must be debug, info, warn or error", level)
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(zlevel).
		With().Timestamp().Logger()
	log.SetProvider(log.NewZerologProvider(zl))
	log.EnableZerologWarnings(zl)
	return nil
}
