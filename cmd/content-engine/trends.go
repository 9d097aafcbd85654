// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/store"
	"github.com/pdiddy/content-engine/internal/trends"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Manage the trend signal collection",
}

var trendsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete trend signals older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			cfg.Trends.Retention = time.Duration(days) * 24 * time.Hour
		}

		client := store.NewClient(cfg.Store)
		n, err := trends.Prune(cmd.Context(), client, cfg.Trends, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d trend signals\n", n)
		return nil
	},
}

func init() {
	trendsPruneCmd.Flags().Int("days", 0, "retention in days (overrides configuration)")

	trendsCmd.AddCommand(trendsPruneCmd)
	rootCmd.AddCommand(trendsCmd)
}
