// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/model"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Build and score candidate models from an alignment",
	Long: `Model takes an alignment file named {target}-{template}.ali, recovers the
target and template codes from the name, and builds 5 candidate models
assessed with DOPE and GA341. Every model and its scores are reported and
saved to {target}-{template}_models.yaml; none is selected.`,
	Args: cobra.NoArgs,
	RunE: runModel,
}

func init() {
	modelCmd.Flags().String("alignmentname", "", "alignment file, e.g. P09038-4oeeA.ali (required)")
	modelCmd.Flags().Int("count", 0, "number of models to build (default 5)")
	modelCmd.Flags().Bool("json", false, "output the model set as JSON")
	modelCmd.MarkFlagRequired("alignmentname")

	rootCmd.AddCommand(modelCmd)
}

func runModel(cmd *cobra.Command, args []string) error {
	alignment, _ := cmd.Flags().GetString("alignmentname")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("count") {
		cfg.Modeling.Count, _ = cmd.Flags().GetInt("count")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	name, err := artifact.ParseAlignmentName(alignment)
	if err != nil {
		return err
	}

	runner, err := newModellerRunner(cfg)
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	var out io.Writer = os.Stdout
	if jsonOutput {
		out = os.Stderr
	}
	return l.Track(cmd.Context(), string(artifact.StageModel), name.Prefix(), func() error {
		set, err := model.Generate(cmd.Context(), model.NewModeller(runner), alignment, cfg.WorkDir, cfg.Modeling, out)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(set)
		}
		return nil
	})
}
