// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/claim-ranker/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE:  runRunsCmd,
}

func init() {
	runsCmd.Flags().String("stage", "", "only list runs of this stage (fetched or ranked)")
	runsCmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")
	runsCmd.Flags().Bool("json", false, "print runs as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRunsCmd(cmd *cobra.Command, args []string) error {
	stage, _ := cmd.Flags().GetString("stage")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	switch store.Stage(stage) {
	case "", store.StageFetched, store.StageRanked:
	default:
		return fmt.Errorf("unknown stage %q (want fetched or ranked)", stage)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), store.Stage(stage), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTAGE\tPOSTS\tCREATED\tPARENT\tDEGRADED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\n",
			r.ID, r.Stage, r.PostCount, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.ParentID, len(r.Diagnostics))
	}
	return tw.Flush()
}
