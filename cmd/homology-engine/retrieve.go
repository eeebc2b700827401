// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/retrieve"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [descriptor]",
	Short: "Download the template structure named by a descriptor file",
	Long: `Retrieve reads the PDB identifier from the first line of the descriptor
file (its first four characters), downloads the structure once in PDB
format, and stores it as {id}_tobefixed.pdb. An existing file is not
overwritten unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringP("pdbfile", "p", "", "template descriptor file")
	retrieveCmd.Flags().Bool("force", false, "overwrite an existing {id}_tobefixed.pdb")
	retrieveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	path, err := descriptorPath(cmd, args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if force, _ := cmd.Flags().GetBool("force"); force {
		cfg.Retrieval.Force = true
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Retrieval.Timeout = timeout
	}

	d, err := artifact.ReadDescriptor(path, artifact.DescriptorOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("PDB ID extracted: %s\n", d.ID)

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	return l.Track(cmd.Context(), string(artifact.StageRetrieve), d.ID, func() error {
		_, err := retrieve.Retrieve(cmd.Context(), newFetcher(cfg), d.ID, cfg.WorkDir, cfg.Retrieval, os.Stdout)
		return err
	})
}
