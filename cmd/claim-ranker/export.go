// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claim-ranker/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a ranked run to CSV, XLSX, JSON, or YAML",
	Long: `Export a ranked run (the latest one unless --run is given). The file
extension of --name selects the format unless --format is set.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, exportFlagKeys)
	},
	RunE: runExportCmd,
}

var exportFlagKeys = map[string]string{
	"dir":    "export.dir",
	"name":   "export.name",
	"format": "export.format",
}

func init() {
	exportCmd.Flags().String("run", "", "ranked run ID (default: latest)")
	addExportFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("dir", ".", "output directory")
	cmd.Flags().String("name", "ranked_fact_checkable_x_posts.csv", "output file name")
	cmd.Flags().String("format", "", "output format: csv, xlsx, json, or yaml (default: from --name)")
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	runID, _ := cmd.Flags().GetString("run")
	var src *store.Run
	if runID != "" {
		src, err = st.GetRun(ctx, runID)
	} else {
		src, err = st.LatestRun(ctx, store.StageRanked)
	}
	if err != nil {
		return fmt.Errorf("loading ranked run: %w (run analyze first)", err)
	}
	if src.Stage != store.StageRanked {
		return fmt.Errorf("run %s is a %s run, want %s", src.ID, src.Stage, store.StageRanked)
	}

	return runExport(src.Posts, cfg.Export, cmd.OutOrStdout())
}
