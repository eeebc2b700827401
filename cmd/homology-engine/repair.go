// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair [descriptor]",
	Short: "Repair a retrieved template structure",
	Long: `Repair opens {id}_tobefixed.pdb and runs four steps in order: missing
residues, nonstandard residue replacement, missing atoms, and hydrogens
at pH 7.0. Each step's changes are printed as the audit trail and saved to
{id}_repair.yaml. The repaired structure is written to {id}.pdb only when
every step succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringP("pdbfile", "p", "", "template descriptor file")
	repairCmd.Flags().Float64("ph", 0, "pH for hydrogen addition, in (0, 14] (default 7.0)")
	repairCmd.Flags().Bool("no-report", false, "do not write {id}_repair.yaml")

	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	path, err := descriptorPath(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ph") {
		cfg.Repair.PH, _ = cmd.Flags().GetFloat64("ph")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
		cfg.Repair.SkipReport = true
	}

	d, err := artifact.ReadDescriptor(path, artifact.DescriptorOptions{})
	if err != nil {
		return err
	}

	fixer, err := newRepairer(cfg)
	if err != nil {
		return err
	}
	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Track(cmd.Context(), string(artifact.StageRepair), d.ID, func() error {
		_, err := repair.Repair(cmd.Context(), fixer, d.ID, cfg.WorkDir, cfg.Repair, os.Stdout)
		return err
	})
}
