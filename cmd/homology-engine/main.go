// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the homology-engine CLI.
// Each pipeline stage is a subcommand; the working directory's file names
// are the only state passed between them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/homology-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds engine license keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the homology-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "homology-engine",
	Short: "Template-based protein homology modeling pipeline",
	Long: `homology-engine builds comparative protein models in four stages, each a
subcommand: retrieve downloads a template structure, repair fixes its
topology, align builds a sequence-to-structure alignment against a target,
and model builds and scores candidate models from that alignment.

Stages communicate only through file names in the working directory:
{id}_tobefixed.pdb, {id}.pdb, {target}-{id}{chain}.ali, and the models.
The run subcommand chains all four for one or more templates.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./homology-engine.yaml or ~/.config/homology-engine/homology-engine.yaml)")
	rootCmd.PersistentFlags().String("workdir", "", "directory holding all pipeline artifacts (default .)")
	rootCmd.PersistentFlags().String("runtime", "", "container runtime for the engines: docker or podman (default: detect)")
	rootCmd.PersistentFlags().Bool("no-ledger", false, "do not record this invocation in the run history")

	viper.BindPFlag("work_dir", rootCmd.PersistentFlags().Lookup("workdir"))
	viper.BindPFlag("engines.runtime", rootCmd.PersistentFlags().Lookup("runtime"))
	viper.BindPFlag("ledger.disabled", rootCmd.PersistentFlags().Lookup("no-ledger"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("homology-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "homology-engine"))
		}
	}

	viper.SetEnvPrefix("HOMOLOGY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
