// Package cli holds the imageoptimize commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"imageoptimize/config"
	"imageoptimize/logger"
	"imageoptimize/routes"
)

// Execute runs the command line against ctx
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "imageoptimize",
		Short:         "Optimized responsive image variants for uploaded assets",
		Version:       routes.Version(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Bootstrap(configPath); err != nil {
				return err
			}
			if err := logger.Init(config.GetLogFile(), true); err != nil {
				return err
			}
			if verbose {
				logger.SetLevel(logger.DEBUG)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (default $IMAGEOPTIMIZE_CONFIG)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newRegenerateCmd())
	root.AddCommand(newProcessTransformsCmd())

	return root
}
