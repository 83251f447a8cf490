package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eaglebank/payment-instructions/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errRejected signals an outcome other than AP00/AP02. The outcome has
// already been rendered, so main only sets the exit status.
var errRejected = errors.New("instruction rejected")

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		if !errors.Is(err, errRejected) {
			pterm.Error.Println(err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "payment-instructions",
		Short:         "Parse, validate and execute payment instructions",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "set the config file path")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newProcessCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))

	return rootCmd
}

func newLogger(level string) (*zap.Logger, error) {
	var parsed zapcore.Level
	if strings.TrimSpace(level) != "" {
		if err := parsed.Set(level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("payment-instructions"), nil
}
