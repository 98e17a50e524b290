// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claim-ranker/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, analyze, and export in one pass",
	Long: `Run every stage in one process: fetch eligible posts, filter, score,
and rank them, then export the ranked list. Both intermediate results are
stored as runs so analyze and export can be repeated later.

Credentials are checked before any network call is made.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		for _, keys := range []map[string]string{fetchFlagKeys, analyzeFlagKeys, exportFlagKeys} {
			if err := bindFlags(cmd, keys); err != nil {
				return err
			}
		}
		return nil
	},
	RunE: runRunCmd,
}

func init() {
	runCmd.Flags().Int("top", 10, "number of ranked posts to print (0 for all)")
	addFetchFlags(runCmd)
	addAnalyzeFlags(runCmd)
	addExportFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := loadedSecrets.X().Validate(); err != nil {
		return err
	}
	backend, err := newBackend(cfg.AI)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fetched, err := runFetch(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	parent, err := st.SaveRun(ctx, store.StageFetched, "", fetched.Posts, fetched.Diagnostics)
	if err != nil {
		return err
	}

	res, err := runAnalysis(ctx, cfg, backend, fetched.Posts, os.Stderr)
	if err != nil {
		return err
	}
	ranked, err := st.SaveRun(ctx, store.StageRanked, parent.ID, res.Ranked, res.Diagnostics)
	if err != nil {
		return err
	}

	top, _ := cmd.Flags().GetInt("top")
	printRanked(out, res.Ranked, top)
	printDiagnostics(out, append(fetched.Diagnostics, res.Diagnostics...))
	fmt.Fprintf(out, "Saved runs %s (fetched) and %s (ranked)\n", parent.ID, ranked.ID)

	return runExport(res.Ranked, cfg.Export, out)
}
