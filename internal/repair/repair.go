// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repair turns a raw template structure into a topologically
// consistent one: missing residues and atoms filled, nonstandard residues
// replaced, hydrogens added. The change report it prints is the audit trail
// of what the engine altered.
package repair

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/structure"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// Options are passed through to the repair engine.
type Options struct {
	// PH is the pH used when adding hydrogens.
	PH float64
}

// Fixed is the engine's result: repaired coordinates and the change report.
type Fixed struct {
	Structure []byte
	Report    types.RepairReport
}

// Repairer runs the four repair steps in order on a raw structure. On
// failure it returns a *types.EngineError naming the failed step.
type Repairer interface {
	Repair(ctx context.Context, raw io.Reader, opts Options) (*Fixed, error)
}

// Repair reads {id}_tobefixed.pdb from workDir, runs the engine, prints the
// audit trail to w, and writes {id}.pdb. Nothing is written unless every
// step succeeded.
func Repair(ctx context.Context, eng Repairer, id, workDir string, cfg types.RepairConfig, w io.Writer) (*types.RepairReport, error) {
	in := artifact.StructureRef{ID: id, Status: types.StructureRaw}
	out := artifact.StructureRef{ID: id, Status: types.StructureRepaired}
	inPath := filepath.Join(workDir, in.FileName())
	outPath := filepath.Join(workDir, out.FileName())

	f, err := os.Open(inPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w (run retrieve first)", inPath, types.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer f.Close()

	fmt.Fprintf(w, "Loading PDB file: %s\n", in.FileName())

	fixed, err := eng.Repair(ctx, f, Options{PH: cfg.PH})
	if err != nil {
		var ee *types.EngineError
		if !errors.As(err, &ee) {
			err = &types.EngineError{Engine: "repair", Err: err}
		}
		return nil, err
	}

	summary, err := structure.Scan(bytes.NewReader(fixed.Structure))
	if err != nil {
		return nil, &types.EngineError{Engine: "repair", Err: fmt.Errorf("unreadable repaired structure: %w", err)}
	}
	if summary.Atoms() == 0 {
		return nil, &types.EngineError{Engine: "repair", Err: errors.New("repaired structure has no coordinates")}
	}

	report := fixed.Report
	report.StructureID = id
	report.Input = in.FileName()
	report.Output = out.FileName()
	report.RepairedAt = time.Now().UTC()

	WriteTrail(w, report)

	fmt.Fprintln(w, "\nSaving the cleaned structure...")
	var outputs []pending
	if !cfg.SkipReport {
		data, err := yaml.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("marshaling repair report: %w", err)
		}
		outputs = append(outputs, pending{path: filepath.Join(workDir, artifact.RepairReportName(id)), data: data})
	}
	// The structure goes last: {id}.pdb only appears once its report has.
	outputs = append(outputs, pending{path: outPath, data: fixed.Structure})
	if err := commit(outputs); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "\nTemplate structure cleaned successfully: %s\n", out.FileName())
	return &report, nil
}

// WriteTrail prints the per-step change report.
func WriteTrail(w io.Writer, r types.RepairReport) {
	fmt.Fprintln(w, "\n--- Structure Cleaning Process ---")

	fmt.Fprintln(w, "Step 1: Finding Missing Residues...")
	if n := r.MissingResidues.Added(); n > 0 {
		fmt.Fprintf(w, " - Added %d missing residues.\n", n)
	} else {
		fmt.Fprintln(w, " - No missing residues found.")
	}

	fmt.Fprintln(w, "\nStep 2: Replacing Non-standard Residues...")
	if len(r.NonstandardResidues) > 0 {
		fmt.Fprintf(w, " - Found %d non-standard residues:\n", len(r.NonstandardResidues))
		for _, res := range r.NonstandardResidues {
			fmt.Fprintf(w, "   - Residue: %s, Chain: %s, ID: %s\n", res.Name, res.Chain, res.ID)
		}
		fmt.Fprintln(w, " - Replacing non-standard residues with standard residues...")
	} else {
		fmt.Fprintln(w, " - No non-standard residues found.")
	}

	fmt.Fprintln(w, "\nStep 3: Finding Missing Atoms...")
	if n := r.MissingAtoms.Added(); n > 0 {
		fmt.Fprintf(w, " - Added %d missing atoms.\n", n)
	} else {
		fmt.Fprintln(w, " - No missing atoms found.")
	}

	fmt.Fprintln(w, "\nStep 4: Adding Missing Hydrogens...")
	fmt.Fprintf(w, " - Added hydrogens to the structure at pH %.1f (%d atoms).\n",
		r.Hydrogens.PH, r.Hydrogens.Atoms.Added())
}

// pending is an output file not yet in place.
type pending struct {
	path string
	data []byte
	tmp  string
}

// commit stages every output as a temp file beside its destination, then
// renames them into place in order. On failure no staged file is left and
// outputs already renamed by this call are removed.
func commit(outputs []pending) error {
	cleanup := func() {
		for _, o := range outputs {
			if o.tmp != "" {
				os.Remove(o.tmp)
			}
		}
	}
	for i := range outputs {
		tmp, err := stage(outputs[i].path, outputs[i].data)
		if err != nil {
			cleanup()
			return fmt.Errorf("writing %s: %w", outputs[i].path, err)
		}
		outputs[i].tmp = tmp
	}
	for i, o := range outputs {
		if err := os.Rename(o.tmp, o.path); err != nil {
			for _, done := range outputs[:i] {
				os.Remove(done.path)
			}
			cleanup()
			return fmt.Errorf("writing %s: %w", o.path, err)
		}
		outputs[i].tmp = ""
	}
	return nil
}

// stage writes data to a temp file beside path and returns its name.
func stage(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".repair-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", closeErr
	}
	return tmpPath, nil
}

// ReadReport loads a repair report written by Repair.
func ReadReport(path string) (*types.RepairReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r types.RepairReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing repair report %s: %w", path, err)
	}
	return &r, nil
}
