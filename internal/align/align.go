// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package align builds the sequence-to-structure alignment between one
// chain of a repaired template and a target sequence, and names it
// {target}-{id}{chain} so the model stage can recover both codes.
package align

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/structure"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// Request is what the alignment engine needs. File names are relative to
// WorkDir except TargetFile, which may live anywhere.
type Request struct {
	WorkDir string

	// TemplateCode is the alignment code of the template, {id}{chain}.
	TemplateCode string
	// AtomFile is the repaired structure, {id}.pdb.
	AtomFile string
	// SegmentStart and SegmentEnd bound the template to one chain:
	// FIRST:{chain} through LAST:{chain}.
	SegmentStart string
	SegmentEnd   string

	// TargetCode is the code of the target sequence in TargetFile.
	TargetCode string
	TargetFile string

	// MaxGap bounds any single insertion or deletion.
	MaxGap int

	// OutputPrefix names the .ali (PIR) and .pap (PAP) outputs.
	OutputPrefix string
}

// Aligner writes {OutputPrefix}.ali and {OutputPrefix}.pap into WorkDir.
type Aligner interface {
	Align(ctx context.Context, req Request) error
}

// Input names the stage's two inputs.
type Input struct {
	TemplateDescriptor string
	TargetFile         string
}

// Result describes the written alignment.
type Result struct {
	Name       artifact.AlignmentName
	Template   artifact.StructureRef
	Alignment  string
	Display    string
	Entries    []PIREntry
	LongestGap int
}

// Align reads the template descriptor (identifier and chain), checks that
// the repaired structure holds the chain and the target file is readable,
// runs the engine, and verifies the written alignment against the gap bound.
func Align(ctx context.Context, eng Aligner, in Input, workDir string, cfg types.AlignmentConfig, w io.Writer) (*Result, error) {
	d, err := artifact.ReadDescriptor(in.TemplateDescriptor, artifact.DescriptorOptions{IncludeChain: true})
	if err != nil {
		return nil, err
	}
	ref := artifact.StructureRef{ID: d.ID, Chain: d.Chain, Status: types.StructureRepaired}
	fmt.Fprintf(w, "template_name: %s\n", d.ID)

	target := artifact.TargetName(in.TargetFile)
	if err := checkReadable(in.TargetFile); err != nil {
		return nil, err
	}

	atomPath := filepath.Join(workDir, ref.FileName())
	summary, err := structure.ScanFile(atomPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w (run repair first)", atomPath, types.ErrMissingArtifact)
		}
		return nil, err
	}
	if !summary.HasChain(d.Chain) {
		return nil, &types.EngineError{Engine: "alignment", Err: fmt.Errorf("%w: chain %q in %s (chains: %q)",
			types.ErrChainNotFound, d.Chain, ref.FileName(), summary.ChainIDs())}
	}

	prefix := artifact.AlignmentPrefix(target, d.ID, d.Chain)
	req := Request{
		WorkDir:      workDir,
		TemplateCode: ref.AlignCode(),
		AtomFile:     ref.FileName(),
		SegmentStart: "FIRST:" + d.ChainString(),
		SegmentEnd:   "LAST:" + d.ChainString(),
		TargetCode:   target,
		TargetFile:   in.TargetFile,
		MaxGap:       cfg.MaxGap,
		OutputPrefix: prefix,
	}
	if err := eng.Align(ctx, req); err != nil {
		var ee *types.EngineError
		if !errors.As(err, &ee) {
			err = &types.EngineError{Engine: "alignment", Err: err}
		}
		return nil, err
	}

	res := &Result{
		Name:      artifact.AlignmentName{Target: target, Template: ref.AlignCode()},
		Template:  ref,
		Alignment: filepath.Join(workDir, artifact.AlignmentFileName(prefix)),
		Display:   filepath.Join(workDir, artifact.DisplayFileName(prefix)),
	}
	for _, p := range []string{res.Alignment, res.Display} {
		if _, err := os.Stat(p); err != nil {
			return nil, &types.EngineError{Engine: "alignment", Err: fmt.Errorf("expected output %s not written", filepath.Base(p))}
		}
	}

	entries, err := ReadPIRFile(res.Alignment)
	if err != nil {
		return nil, &types.EngineError{Engine: "alignment", Err: err}
	}
	if err := CheckGaps(entries, cfg.MaxGap); err != nil {
		// An over-long gap must not reach the model stage.
		os.Remove(res.Alignment)
		os.Remove(res.Display)
		return nil, &types.EngineError{Engine: "alignment", Err: err}
	}
	res.Entries = entries
	for _, e := range entries {
		if n := LongestGap(e.Sequence); n > res.LongestGap {
			res.LongestGap = n
		}
	}

	fmt.Fprintf(w, "Alignment completed. Output files: %s, %s\n",
		artifact.AlignmentFileName(prefix), artifact.DisplayFileName(prefix))
	return res, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("target file %s: %w", path, types.ErrMissingArtifact)
		}
		return fmt.Errorf("target file %s unreadable: %w", path, err)
	}
	return f.Close()
}
