// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claim-ranker/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Filter, score, and rank a fetched run",
	Long: `Load a fetched run (the latest one unless --run is given), keep posts
that likely contain a checkable claim, score them for importance and
checkability, rank them, and store the ranked result as a new run.

Requires ANTHROPIC_API_KEY.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, analyzeFlagKeys)
	},
	RunE: runAnalyzeCmd,
}

var analyzeFlagKeys = map[string]string{
	"model":                    "ai.model",
	"batch-size":               "analysis.batch_size",
	"strict-rejections":        "analysis.strict_rejections",
	"engagement-basis":         "rank.engagement_basis",
	"min-retweets":             "rank.min_retweets",
	"threshold-before-scoring": "rank.threshold_before_scoring",
	"threshold-after-ranking":  "rank.threshold_after_ranking",
}

func init() {
	analyzeCmd.Flags().String("run", "", "fetched run ID (default: latest)")
	analyzeCmd.Flags().Int("top", 10, "number of ranked posts to print (0 for all)")
	addAnalyzeFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "capability model identifier")
	cmd.Flags().Int("batch-size", 12, "posts per capability call (at most 12)")
	cmd.Flags().Bool("strict-rejections", false, "never let the heuristic keep posts the capability rejected")
	cmd.Flags().String("engagement-basis", "retweets", "engagement count to rank on: retweets or composite")
	cmd.Flags().Int("min-retweets", 25, "retweet threshold for the optional filters")
	cmd.Flags().Bool("threshold-before-scoring", false, "drop posts under --min-retweets before filtering")
	cmd.Flags().Bool("threshold-after-ranking", false, "drop posts under --min-retweets from the ranked output")
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
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
	runID, _ := cmd.Flags().GetString("run")
	var src *store.Run
	if runID != "" {
		src, err = st.GetRun(ctx, runID)
	} else {
		src, err = st.LatestRun(ctx, store.StageFetched)
	}
	if err != nil {
		return fmt.Errorf("loading fetched run: %w (run fetch first)", err)
	}
	if src.Stage != store.StageFetched {
		return fmt.Errorf("run %s is a %s run, want %s", src.ID, src.Stage, store.StageFetched)
	}

	res, err := runAnalysis(ctx, cfg, backend, src.Posts, os.Stderr)
	if err != nil {
		return err
	}

	run, err := st.SaveRun(ctx, store.StageRanked, src.ID, res.Ranked, res.Diagnostics)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	top, _ := cmd.Flags().GetInt("top")
	printRanked(out, res.Ranked, top)
	printDiagnostics(out, res.Diagnostics)
	fmt.Fprintf(out, "Saved ranked run %s (%d of %d posts, parent %s)\n",
		run.ID, run.PostCount, res.Input, src.ID)
	return nil
}
