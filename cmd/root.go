// Package cmd defines and implements the CLI commands for the landing executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/config"
	"github.com/JakeFAU/mcatedge-landing/internal/logging"
)

var cfgFile string

type envKeyType string

const envKey envKeyType = "env"

// cliEnv carries what every subcommand needs: the loaded config and logger.
type cliEnv struct {
	cfg    config.Config
	logger *zap.Logger
}

// loadEnv is a variable so tests can inject an environment without touching
// files or the environment.
var loadEnv = func(path string) (*cliEnv, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	return &cliEnv{cfg: cfg, logger: logger}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "landing",
		Short: "MCAT Edge landing page and waitlist service.",
		Long: `landing serves the MCAT Edge landing page, runs waitlist signups against
the newsletter API, and routes the confirmation page.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadEnv(cfgFile)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(rt.logger)
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, rt))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if rt, ok := cmd.Context().Value(envKey).(*cliEnv); ok && rt != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and LANDING_* env vars apply without one)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSubscribeCmd())
	return cmd
}

func resolveEnv(ctx context.Context) (*cliEnv, error) {
	rt, ok := ctx.Value(envKey).(*cliEnv)
	if !ok || rt == nil {
		return nil, errors.New("command environment not initialized")
	}
	return rt, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "command execution failed: %v\n", err)
		os.Exit(1)
	}
}
