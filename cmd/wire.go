package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	metagen "github.com/andishehs/MetaGen"
	"github.com/andishehs/MetaGen/config"
	"github.com/andishehs/MetaGen/logging"
	"github.com/andishehs/MetaGen/tracing"
)

type app struct {
	configFile string
	viper      *viper.Viper
	bindErr    error

	cfg      *config.Config
	mg       *metagen.MetaGen
	logger   *logging.StructuredLogger
	shutdown func(context.Context) error
}

// bind maps config keys to flags so an explicit flag beats file and env.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) {
	a.viper = viper.New()
	for key, name := range keys {
		if err := a.viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			a.bindErr = errors.Join(a.bindErr, fmt.Errorf("bind flag %s: %w", name, err))
		}
	}
}

func (a *app) open(cmd *cobra.Command) error {
	if a.bindErr != nil {
		return a.bindErr
	}

	cfg, err := config.Load(func(o *config.LoadOptions) {
		o.File = a.configFile
		o.Viper = a.viper
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
		Component: "metagen",
	})

	shutdown, err := tracing.Setup(cmd.Context(), func(o *tracing.Options) {
		o.Enabled = cfg.Tracing.Enabled
		o.Exporter = cfg.Tracing.Exporter
		o.Output = cmd.ErrOrStderr()
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	mg, err := metagen.New(func(o *metagen.Options) {
		o.Config = cfg
		o.Logger = logger
		o.Input = cmd.InOrStdin()
		o.Output = cmd.OutOrStdout()
	})
	if err != nil {
		_ = shutdown(cmd.Context())
		return fmt.Errorf("open registry: %w", err)
	}

	a.cfg, a.mg, a.logger, a.shutdown = cfg, mg, logger, shutdown
	return nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.mg != nil {
		errs = append(errs, a.mg.Close())
	}
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	return errors.Join(errs...)
}
