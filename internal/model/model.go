// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model builds and scores candidate models from an alignment whose
// file name encodes the target and template codes.
package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// BuildRequest is what the modeling engine needs. AlignmentFile is relative
// to WorkDir.
type BuildRequest struct {
	WorkDir       string
	AlignmentFile string

	// Known is the template alignment code, Sequence the target code.
	Known    string
	Sequence string

	// OutputPrefix replaces the target code in model file names.
	OutputPrefix string

	Count  int
	Assess []types.AssessMethod
}

// Modeler builds Count models and returns them in build order.
type Modeler interface {
	Build(ctx context.Context, req BuildRequest) ([]types.ModelResult, error)
}

// Generate decodes target and template from the alignment file name, runs
// the engine, and writes {target}-{template}_models.yaml. Every model is
// returned; none is selected.
func Generate(ctx context.Context, eng Modeler, alignmentFile, workDir string, cfg types.ModelingConfig, w io.Writer) (*types.ModelSet, error) {
	name, err := artifact.ParseAlignmentName(alignmentFile)
	if err != nil {
		return nil, err
	}

	path := alignmentFile
	if filepath.Base(alignmentFile) == alignmentFile {
		path = filepath.Join(workDir, alignmentFile)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("alignment %s: %w (run align first)", path, types.ErrMissingArtifact)
		}
		return nil, err
	}
	if !sameDir(filepath.Dir(path), workDir) {
		return nil, fmt.Errorf("alignment %s must be in the working directory %s", path, workDir)
	}

	fmt.Fprintf(w, "building %d models: target %s, template %s\n", cfg.Count, name.Target, name.Template)
	models, err := eng.Build(ctx, BuildRequest{
		WorkDir:       workDir,
		AlignmentFile: filepath.Base(path),
		Known:         name.Template,
		Sequence:      name.Target,
		OutputPrefix:  name.Prefix(),
		Count:         cfg.Count,
		Assess:        cfg.Assess,
	})
	if err != nil {
		var ee *types.EngineError
		if !errors.As(err, &ee) {
			err = &types.EngineError{Engine: "modeling", Err: err}
		}
		return nil, err
	}
	if len(models) != cfg.Count {
		return nil, &types.EngineError{Engine: "modeling",
			Err: fmt.Errorf("expected %d models, engine returned %d", cfg.Count, len(models))}
	}

	set := &types.ModelSet{
		Target:    name.Target,
		Template:  name.Template,
		Alignment: filepath.Base(path),
		Models:    models,
	}
	scores := filepath.Join(workDir, artifact.ModelScoresName(name))
	if err := writeScores(scores, set); err != nil {
		return nil, err
	}

	WriteTable(w, set)
	fmt.Fprintf(w, "Modeling complete. Target: %s, Template: %s\n", name.Target, name.Template)
	return set, nil
}

// WriteTable prints one row per model in build order.
func WriteTable(w io.Writer, set *types.ModelSet) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tFILE\tMOLPDF\tDOPE\tGA341")
	for _, m := range set.Models {
		if m.Failure != "" {
			fmt.Fprintf(tw, "%d\t%s\tfailed: %s\t\t\n", m.Index, m.File, m.Failure)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%.3f\t%.5f\n", m.Index, m.File, m.Molpdf, m.DOPE, m.GA341)
	}
	tw.Flush()
}

// ReadScores loads a model score file.
func ReadScores(path string) (*types.ModelSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set types.ModelSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &set, nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func writeScores(path string, set *types.ModelSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("encoding model scores: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
