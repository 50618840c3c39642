package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dkp",
	Short: "Alliance DKP stats from a shared spreadsheet",
	Long:  "Reads the alliance stats sheet, normalizes its messy cells into typed values, and answers player lookups, leaderboards, and pairwise comparisons.",
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
