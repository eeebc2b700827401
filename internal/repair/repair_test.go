// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repair

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/homology-engine/internal/structure"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// rawTemplate has a selenomethionine (nonstandard), a glycine missing its
// carbonyl atoms, and no hydrogens.
var rawTemplate = strings.Join([]string{
	pdbLine("ATOM", 1, "N", "PRO", 'A', 10),
	pdbLine("ATOM", 2, "CA", "PRO", 'A', 10),
	pdbLine("ATOM", 3, "C", "PRO", 'A', 10),
	pdbLine("ATOM", 4, "O", "PRO", 'A', 10),
	pdbLine("HETATM", 5, "N", "MSE", 'A', 11),
	pdbLine("HETATM", 6, "CA", "MSE", 'A', 11),
	pdbLine("HETATM", 7, "C", "MSE", 'A', 11),
	pdbLine("HETATM", 8, "O", "MSE", 'A', 11),
	pdbLine("ATOM", 9, "N", "GLY", 'A', 12),
	pdbLine("ATOM", 10, "CA", "GLY", 'A', 12),
	"END",
}, "\n") + "\n"

func pdbLine(record string, serial int, atom, res string, chain byte, seq int) string {
	return fmt.Sprintf("%-6s%5d %-4s %3s %c%4d    %8.3f%8.3f%8.3f%6.2f%6.2f",
		record, serial, atom, res, chain, seq, float64(seq), 1.0, 2.0, 1.0, 20.0)
}

// fakeFixer is a toy repair engine over PDB text: it renames MSE to MET,
// completes the N/CA/C/O backbone of every residue, and adds one hydrogen
// per residue that has none.
type fakeFixer struct {
	err   error
	calls int
	gotPH float64
}

type fakeResidue struct {
	name  string
	chain byte
	seq   int
	atoms []string
}

func (f *fakeFixer) Repair(_ context.Context, raw io.Reader, opts Options) (*Fixed, error) {
	f.calls++
	f.gotPH = opts.PH
	if f.err != nil {
		return nil, f.err
	}

	var residues []*fakeResidue
	index := map[string]*fakeResidue{}
	sc := bufio.NewScanner(raw)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		key := line[21:27]
		r, ok := index[key]
		if !ok {
			var seq int
			fmt.Sscanf(strings.TrimSpace(line[22:26]), "%d", &seq)
			r = &fakeResidue{name: strings.TrimSpace(line[17:20]), chain: line[21], seq: seq}
			index[key] = r
			residues = append(residues, r)
		}
		r.atoms = append(r.atoms, strings.TrimSpace(line[12:16]))
	}

	var rep types.RepairReport
	rep.MissingResidues = types.CountDelta{Before: len(residues), After: len(residues)}

	for _, r := range residues {
		if r.name == "MSE" {
			rep.NonstandardResidues = append(rep.NonstandardResidues,
				types.ResidueRef{Name: r.name, Chain: string(r.chain), ID: fmt.Sprint(r.seq)})
			r.name = "MET"
		}
	}

	before := countAtoms(residues)
	for _, r := range residues {
		for _, want := range []string{"N", "CA", "C", "O"} {
			if !contains(r.atoms, want) {
				r.atoms = append(r.atoms, want)
			}
		}
	}
	rep.MissingAtoms = types.CountDelta{Before: before, After: countAtoms(residues)}

	before = countAtoms(residues)
	for _, r := range residues {
		if !contains(r.atoms, "H") {
			r.atoms = append(r.atoms, "H")
		}
	}
	rep.Hydrogens = types.HydrogenStep{PH: opts.PH, Atoms: types.CountDelta{Before: before, After: countAtoms(residues)}}

	var b strings.Builder
	serial := 1
	for _, r := range residues {
		for _, a := range r.atoms {
			b.WriteString(pdbLine("ATOM", serial, a, r.name, r.chain, r.seq))
			b.WriteByte('\n')
			serial++
		}
	}
	b.WriteString("END\n")
	return &Fixed{Structure: []byte(b.String()), Report: rep}, nil
}

func countAtoms(rs []*fakeResidue) int {
	n := 0
	for _, r := range rs {
		n += len(r.atoms)
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func writeRaw(t *testing.T, dir, id, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+"_tobefixed.pdb"), []byte(content), 0o644))
}

func TestRepair_WritesRepairedArtifactAndTrail(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "4OEE", rawTemplate)

	eng := &fakeFixer{}
	var out bytes.Buffer
	rep, err := Repair(context.Background(), eng, "4OEE", dir, types.RepairConfig{PH: 7.0}, &out)
	require.NoError(t, err)

	assert.Equal(t, 7.0, eng.gotPH)
	assert.Equal(t, "4OEE", rep.StructureID)
	assert.Equal(t, "4OEE_tobefixed.pdb", rep.Input)
	assert.Equal(t, "4OEE.pdb", rep.Output)
	assert.False(t, rep.Clean())
	require.Len(t, rep.NonstandardResidues, 1)
	assert.Equal(t, types.ResidueRef{Name: "MSE", Chain: "A", ID: "11"}, rep.NonstandardResidues[0])
	assert.Equal(t, 2, rep.MissingAtoms.Added())

	trail := out.String()
	for _, want := range []string{
		"Loading PDB file: 4OEE_tobefixed.pdb",
		"Step 1: Finding Missing Residues...",
		" - No missing residues found.",
		"Step 2: Replacing Non-standard Residues...",
		" - Found 1 non-standard residues:",
		"   - Residue: MSE, Chain: A, ID: 11",
		"Step 3: Finding Missing Atoms...",
		" - Added 2 missing atoms.",
		"Step 4: Adding Missing Hydrogens...",
		"at pH 7.0",
		"Template structure cleaned successfully: 4OEE.pdb",
	} {
		assert.Contains(t, trail, want)
	}
	assert.Less(t, strings.Index(trail, "Step 1"), strings.Index(trail, "Step 2"))
	assert.Less(t, strings.Index(trail, "Step 3"), strings.Index(trail, "Step 4"))

	s, err := structure.ScanFile(filepath.Join(dir, "4OEE.pdb"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Residues())
	assert.Zero(t, s.Chains['A'].Hetero)

	saved, err := ReadReport(filepath.Join(dir, "4OEE_repair.yaml"))
	require.NoError(t, err)
	assert.Equal(t, rep.NonstandardResidues, saved.NonstandardResidues)
	assert.Equal(t, rep.MissingAtoms, saved.MissingAtoms)

	assert.FileExists(t, filepath.Join(dir, "4OEE_tobefixed.pdb"), "raw input is left in place")
}

func TestRepair_IsFixedPoint(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "4OEE", rawTemplate)
	eng := &fakeFixer{}

	_, err := Repair(context.Background(), eng, "4OEE", dir, types.RepairConfig{PH: 7.0}, io.Discard)
	require.NoError(t, err)

	repaired, err := os.ReadFile(filepath.Join(dir, "4OEE.pdb"))
	require.NoError(t, err)
	writeRaw(t, dir, "1FIX", string(repaired))

	var out bytes.Buffer
	rep, err := Repair(context.Background(), eng, "1FIX", dir, types.RepairConfig{PH: 7.0}, &out)
	require.NoError(t, err)

	assert.True(t, rep.Clean())
	assert.Zero(t, rep.MissingResidues.Added())
	assert.Empty(t, rep.NonstandardResidues)
	assert.Zero(t, rep.MissingAtoms.Added())
	assert.Contains(t, out.String(), " - No non-standard residues found.")
	assert.Contains(t, out.String(), " - No missing atoms found.")
	assert.Contains(t, out.String(), "Step 4: Adding Missing Hydrogens...", "hydrogen step always runs")
}

func TestRepair_MissingInput(t *testing.T) {
	eng := &fakeFixer{}
	_, err := Repair(context.Background(), eng, "4OEE", t.TempDir(), types.RepairConfig{PH: 7.0}, io.Discard)
	require.ErrorIs(t, err, types.ErrMissingArtifact)
	assert.Zero(t, eng.calls)
}

func TestRepair_EngineFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantStep int
	}{
		{"step failure", &types.EngineError{Engine: "repair", Step: 3, Err: errors.New("template not found for residue")}, 3},
		{"opaque failure", errors.New("container exited with code 137"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRaw(t, dir, "4OEE", rawTemplate)

			_, err := Repair(context.Background(), &fakeFixer{err: tt.err}, "4OEE", dir, types.RepairConfig{PH: 7.0}, io.Discard)
			require.Error(t, err)

			var ee *types.EngineError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, "repair", ee.Engine)
			assert.Equal(t, tt.wantStep, ee.Step)

			assert.NoFileExists(t, filepath.Join(dir, "4OEE.pdb"))
			assert.NoFileExists(t, filepath.Join(dir, "4OEE_repair.yaml"))
		})
	}
}

func TestRepair_EmptyEngineOutput(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "4OEE", "END\n")

	_, err := Repair(context.Background(), &fakeFixer{}, "4OEE", dir, types.RepairConfig{PH: 7.0}, io.Discard)
	require.Error(t, err)
	assert.True(t, types.IsEngineFailure(err))
	assert.NoFileExists(t, filepath.Join(dir, "4OEE.pdb"))
}

func TestRepair_SkipReport(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "4OEE", rawTemplate)

	_, err := Repair(context.Background(), &fakeFixer{}, "4OEE", dir, types.RepairConfig{PH: 7.0, SkipReport: true}, io.Discard)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "4OEE.pdb"))
	assert.NoFileExists(t, filepath.Join(dir, "4OEE_repair.yaml"))
}

func TestRepair_ReportFailureLeavesNoStructure(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "4OEE", rawTemplate)
	// A directory in the report's place makes its rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "4OEE_repair.yaml"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4OEE_repair.yaml", "keep"), nil, 0o644))

	_, err := Repair(context.Background(), &fakeFixer{}, "4OEE", dir, types.RepairConfig{PH: 7.0}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4OEE_repair.yaml")

	assert.NoFileExists(t, filepath.Join(dir, "4OEE.pdb"))
	staged, err := filepath.Glob(filepath.Join(dir, ".repair-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, staged)
}
