// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs from the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig()
		if cfg.RunLogPath == "" {
			return fmt.Errorf("run journal is not configured (run_log_path)")
		}

		journal, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			return err
		}
		defer journal.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := journal.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}

		for _, rec := range records {
			line := fmt.Sprintf("#%d  %s  %s", rec.ID, rec.Started.Format("2006-01-02 15:04"), rec.Stage)
			if rec.Title != "" {
				line += "  " + rec.Title
			}
			if rec.Error != "" {
				line += "  (" + rec.Error + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "number of runs to show")

	rootCmd.AddCommand(runsCmd)
}
