// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded stage runs, newest first",
	Long: `History lists the stage invocations recorded in the run ledger with
their outcome and duration. The ledger is a record only; pipeline state
comes from the files in the working directory.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("id", "", "filter by identifier (PDB id or alignment prefix)")
	historyCmd.Flags().String("stage", "", "filter by stage: retrieve, repair, align, or model")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	stage, _ := cmd.Flags().GetString("stage")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Disabled {
		return fmt.Errorf("run history is disabled")
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.List(cmd.Context(), ledger.Filter{Identifier: id, Stage: stage, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTAGE\tIDENTIFIER\tSTATUS\tDURATION\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Stage, e.Identifier, e.Status,
			e.Duration().Round(time.Millisecond), e.Error)
	}
	return tw.Flush()
}
