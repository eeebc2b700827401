// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [descriptors...]",
	Short: "Show which pipeline artifacts exist for each template",
	Long: `Status decodes the pipeline state of each template purely from the file
names in the working directory: the raw and repaired structures, the
repair report, every alignment built against the template's chain, and
the models built from each alignment.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("all-chains", false, "include alignments against every chain of the structure")
	statusCmd.Flags().Bool("yaml", false, "output status as YAML")
	statusCmd.Flags().Bool("scores", false, "print the saved model scores of each alignment")

	rootCmd.AddCommand(statusCmd)
}

// alignmentStatus and templateStatus are the YAML form of artifact.State.
type alignmentStatus struct {
	Alignment string   `yaml:"alignment"`
	Display   bool     `yaml:"display"`
	Scores    bool     `yaml:"scores"`
	Models    []string `yaml:"models,omitempty"`
}

type templateStatus struct {
	Descriptor string            `yaml:"descriptor"`
	ID         string            `yaml:"id"`
	Chain      string            `yaml:"chain,omitempty"`
	Raw        bool              `yaml:"raw"`
	Repaired   bool              `yaml:"repaired"`
	Report     bool              `yaml:"report"`
	Alignments []alignmentStatus `yaml:"alignments,omitempty"`
	Complete   string            `yaml:"complete"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	allChains, _ := cmd.Flags().GetBool("all-chains")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	showScores, _ := cmd.Flags().GetBool("scores")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var statuses []templateStatus
	for _, path := range args {
		d, err := artifact.ReadDescriptor(path, artifact.DescriptorOptions{IncludeChain: !allChains})
		if err != nil {
			return err
		}
		st, err := artifact.Inspect(cfg.WorkDir, d)
		if err != nil {
			return err
		}
		statuses = append(statuses, toTemplateStatus(path, d, st))
	}

	if yamlOutput {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(statuses); err != nil {
			return err
		}
		return enc.Close()
	}
	for _, s := range statuses {
		writeStatus(os.Stdout, s)
		if !showScores {
			continue
		}
		for _, a := range s.Alignments {
			if !a.Scores {
				continue
			}
			name, err := artifact.ParseAlignmentName(a.Alignment)
			if err != nil {
				return err
			}
			set, err := model.ReadScores(filepath.Join(cfg.WorkDir, artifact.ModelScoresName(name)))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s\n", artifact.ModelScoresName(name))
			model.WriteTable(os.Stdout, set)
			fmt.Fprintln(os.Stdout)
		}
	}
	return nil
}

func toTemplateStatus(path string, d artifact.Descriptor, st artifact.State) templateStatus {
	s := templateStatus{
		Descriptor: path,
		ID:         d.ID,
		Chain:      d.ChainString(),
		Raw:        st.Raw,
		Repaired:   st.Repaired,
		Report:     st.Report,
		Complete:   string(st.Complete()),
	}
	if s.Complete == "" {
		s.Complete = "none"
	}
	for _, a := range st.Alignments {
		s.Alignments = append(s.Alignments, alignmentStatus{
			Alignment: a.Name.FileName(),
			Display:   a.Display,
			Scores:    a.Scores,
			Models:    a.Models,
		})
	}
	return s
}

func writeStatus(w io.Writer, s templateStatus) {
	fmt.Fprintf(w, "%s%s (%s)\n", s.ID, s.Chain, filepath.Base(s.Descriptor))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  raw\t%s\t%s\n", artifact.RawStructureName(s.ID), presence(s.Raw))
	fmt.Fprintf(tw, "  repaired\t%s\t%s\n", artifact.RepairedStructureName(s.ID), presence(s.Repaired))
	fmt.Fprintf(tw, "  report\t%s\t%s\n", artifact.RepairReportName(s.ID), presence(s.Report))
	for _, a := range s.Alignments {
		fmt.Fprintf(tw, "  alignment\t%s\tpap: %s, scores: %s, models: %d\n",
			a.Alignment, presence(a.Display), presence(a.Scores), len(a.Models))
	}
	tw.Flush()
	fmt.Fprintf(w, "  complete through: %s\n\n", s.Complete)
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
