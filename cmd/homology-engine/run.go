// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/align"
	"github.com/pdiddy/homology-engine/internal/model"
	"github.com/pdiddy/homology-engine/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [descriptors...]",
	Short: "Run retrieve, repair, align, and model for one or more templates",
	Long: `Run chains every stage for each template descriptor against one target
sequence. Stages of one template run in order and stop at the first
failure. Distinct templates run concurrently, up to --jobs at a time; a
batch naming the same PDB identifier twice is rejected before anything
runs. With --resume, stages whose output file already exists are skipped.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("target", "", "target sequence alignment file, e.g. P09038.ali")
	runCmd.Flags().Int("jobs", 0, "templates processed concurrently (default 1)")
	runCmd.Flags().Bool("resume", false, "skip stages whose output already exists")
	runCmd.Flags().Bool("dot", false, "print the stage graph in DOT format and exit")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if dot, _ := cmd.Flags().GetBool("dot"); dot {
		return pipeline.WriteDOT(os.Stdout)
	}
	target, _ := cmd.Flags().GetString("target")
	if target == "" {
		return fmt.Errorf("provide the target sequence file with --target")
	}
	if len(args) == 0 {
		return fmt.Errorf("provide one or more template descriptor files")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs, _ = cmd.Flags().GetInt("jobs")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	fixer, err := newRepairer(cfg)
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

	resume, _ := cmd.Flags().GetBool("resume")
	r := &pipeline.Runner{
		Engines: pipeline.Engines{
			Fetcher:  newFetcher(cfg),
			Repairer: fixer,
			Aligner:  align.NewModeller(runner),
			Modeler:  model.NewModeller(runner),
		},
		Config: cfg,
		Ledger: l,
		Resume: resume,
	}

	jobs := make([]pipeline.Job, len(args))
	for i, desc := range args {
		jobs[i] = pipeline.Job{Descriptor: desc, Target: target}
	}
	result, err := r.RunBatch(cmd.Context(), jobs, os.Stdout)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d template(s) failed", result.Failed)
	}
	return nil
}
