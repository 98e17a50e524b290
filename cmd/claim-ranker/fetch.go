// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claim-ranker/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch posts eligible for fact-check notes",
	Long: `Fetch pages of posts eligible for fact-check notes from the X API and
store them as a new run. When the search response carries no engagement
counts the posts are hydrated through the lookup endpoint.

Requires the X_API_KEY, X_API_KEY_SECRET, X_ACCESS_TOKEN, and
X_ACCESS_TOKEN_SECRET credentials.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, fetchFlagKeys)
	},
	RunE: runFetchCmd,
}

// fetchFlagKeys maps fetch flags to config keys. The run command shares them.
var fetchFlagKeys = map[string]string{
	"test-mode":       "fetch.test_mode",
	"max-results":     "fetch.max_results",
	"pages":           "fetch.pages",
	"hydrate-metrics": "fetch.hydrate_metrics",
	"compute-reach":   "fetch.compute_reach",
}

func init() {
	addFetchFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("test-mode", true, "request the eligible-posts test corpus")
	cmd.Flags().Int("max-results", 100, "page size (10-500)")
	cmd.Flags().Int("pages", 2, "maximum pages to fetch (1-10)")
	cmd.Flags().Bool("hydrate-metrics", true, "look up engagement counts the search omitted")
	cmd.Flags().Bool("compute-reach", true, "compute a 0-10 reach score per post")
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := runFetch(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}

	run, err := st.SaveRun(cmd.Context(), store.StageFetched, "", res.Posts, res.Diagnostics)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printDiagnostics(out, res.Diagnostics)
	fmt.Fprintf(out, "Saved fetched run %s (%d posts)\n", run.ID, run.PostCount)
	return nil
}
