// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/align"
	"github.com/pdiddy/homology-engine/internal/artifact"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align a target sequence to one chain of a repaired template",
	Long: `Align reads the PDB identifier and chain from the template descriptor
(first four characters, then the fifth), restricts {id}.pdb to that chain,
and aligns the target sequence to it with a maximum gap of 50 residues.
The alignment is written as {target}-{id}{chain}.ali (PIR) and .pap, where
target is the target file's name without .ali.`,
	Args: cobra.NoArgs,
	RunE: runAlign,
}

func init() {
	alignCmd.Flags().String("template", "", "template descriptor file (required)")
	alignCmd.Flags().String("target", "", "target sequence alignment file, e.g. P09038.ali (required)")
	alignCmd.Flags().Int("max-gap", 0, "longest gap allowed in the alignment (default 50)")
	alignCmd.MarkFlagRequired("template")
	alignCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, args []string) error {
	template, _ := cmd.Flags().GetString("template")
	target, _ := cmd.Flags().GetString("target")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-gap") {
		cfg.Alignment.MaxGap, _ = cmd.Flags().GetInt("max-gap")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	d, err := artifact.ReadDescriptor(template, artifact.DescriptorOptions{IncludeChain: true})
	if err != nil {
		return err
	}
	key := artifact.AlignmentPrefix(artifact.TargetName(target), d.ID, d.Chain)

	runner, err := newModellerRunner(cfg)
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Track(cmd.Context(), string(artifact.StageAlign), key, func() error {
		res, err := align.Align(cmd.Context(), align.NewModeller(runner),
			align.Input{TemplateDescriptor: template, TargetFile: target}, cfg.WorkDir, cfg.Alignment, os.Stdout)
		if err != nil {
			return err
		}
		fmt.Printf("longest gap: %d (max %d)\n", res.LongestGap, cfg.Alignment.MaxGap)
		return nil
	})
}
