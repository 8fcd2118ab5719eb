package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/teamform/config"
)

// app is the state shared by subcommands once the root has loaded it.
type app struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "teamform",
		Short: "Learn pairwise preferences and form teams",
		Long: `teamform plays adaptive team-formation policies against a simulated
population whose pairwise preferences are hidden, noisy and drifting, and
solves single capacity-constrained assignments from a score matrix.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.sync() },
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML); TEAMFORM_* env vars override it")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd(a), newAssignCmd(a), newConfigCmd(a))

	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	if a.cfg, err = config.Load(v); err != nil {
		return err
	}
	a.log, err = newLogger(a.cfg.Logging.Level, a.verbose)
	if err != nil {
		return err
	}
	a.log.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("file", v.ConfigFileUsed()))

	return nil
}

func (a *app) sync() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// newLogger builds a production zap logger at level, or debug when verbose.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = !verbose

	return zc.Build()
}
