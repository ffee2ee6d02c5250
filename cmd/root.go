package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crisp",
	Short: "Crime and environmental context analytics",
	Long:  "Geocodes an address, buffers it, joins local crime events to an H3 hex grid, and reports per-bucket totals and monthly trends over environmental context layers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
