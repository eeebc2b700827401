// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/homology-engine/internal/container"
	"github.com/pdiddy/homology-engine/internal/ledger"
	"github.com/pdiddy/homology-engine/internal/modeller"
	"github.com/pdiddy/homology-engine/internal/repair"
	"github.com/pdiddy/homology-engine/internal/retrieve"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// setConfigDefaults registers every config key with viper so environment
// overrides reach Unmarshal.
func setConfigDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("work_dir", d.WorkDir)
	viper.SetDefault("jobs", d.Jobs)
	viper.SetDefault("retrieval.base_url", d.Retrieval.BaseURL)
	viper.SetDefault("retrieval.timeout", d.Retrieval.Timeout)
	viper.SetDefault("retrieval.user_agent", d.Retrieval.UserAgent)
	viper.SetDefault("retrieval.force", false)
	viper.SetDefault("repair.ph", d.Repair.PH)
	viper.SetDefault("repair.skip_report", false)
	viper.SetDefault("alignment.max_gap", d.Alignment.MaxGap)
	viper.SetDefault("modeling.count", d.Modeling.Count)
	viper.SetDefault("modeling.assess", d.Modeling.Assess)
	viper.SetDefault("engines.runtime", "")
	viper.SetDefault("engines.pdbfixer_image", d.Engines.PDBFixerImage)
	viper.SetDefault("engines.modeller_image", d.Engines.ModellerImage)
	viper.SetDefault("ledger.path", d.Ledger.Path)
	viper.SetDefault("ledger.disabled", false)
}

// loadConfig merges the config file, environment, and bound flags, then
// fills defaults and validates.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// descriptorPath returns the template descriptor named by -p or the first
// positional argument.
func descriptorPath(cmd *cobra.Command, args []string) (string, error) {
	p, _ := cmd.Flags().GetString("pdbfile")
	if p == "" && len(args) > 0 {
		p = args[0]
	}
	if p == "" {
		return "", fmt.Errorf("provide the template descriptor file with -p or as an argument")
	}
	return p, nil
}

func newFetcher(cfg types.PipelineConfig) retrieve.Fetcher {
	client := &http.Client{Timeout: cfg.Retrieval.Timeout}
	return retrieve.NewRCSBFetcher(client, cfg.Retrieval)
}

func newRepairer(cfg types.PipelineConfig) (*repair.PDBFixer, error) {
	rt, err := container.NewRuntime(cfg.Engines.Runtime)
	if err != nil {
		return nil, err
	}
	return repair.NewPDBFixer(rt, cfg.Engines.PDBFixerImage)
}

func newModellerRunner(cfg types.PipelineConfig) (*modeller.Runner, error) {
	rt, err := container.NewRuntime(cfg.Engines.Runtime)
	if err != nil {
		return nil, err
	}
	return modeller.NewRunner(rt, cfg.Engines.ModellerImage, loadedSecrets.ContainerEnv())
}

// openLedger returns nil when history recording is disabled.
func openLedger(cfg types.PipelineConfig) (*ledger.Ledger, error) {
	if cfg.Ledger.Disabled {
		return nil, nil
	}
	path := cfg.Ledger.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.WorkDir, path)
	}
	return ledger.Open(path)
}
