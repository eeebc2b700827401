// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/homology-engine/pkg/types"
)

func pdbLine(serial int, atom, res string, chain byte, seq int) string {
	return fmt.Sprintf("%-6s%5d %-4s %3s %c%4d    %8.3f%8.3f%8.3f%6.2f%6.2f",
		"ATOM", serial, atom, res, chain, seq, float64(seq), 1.0, 2.0, 1.0, 20.0)
}

// repairedTemplate has chains A and B with three residues each.
func repairedTemplate() string {
	var b strings.Builder
	serial := 1
	for _, chain := range []byte{'A', 'B'} {
		for seq := 1; seq <= 3; seq++ {
			for _, atom := range []string{"N", "CA", "C", "O"} {
				b.WriteString(pdbLine(serial, atom, "GLY", chain, seq) + "\n")
				serial++
			}
		}
	}
	b.WriteString("END\n")
	return b.String()
}

// fakeAligner writes a two-entry PIR alignment. By default the target row
// carries an internal gap of the configured length; template and target
// replace the rows when set.
type fakeAligner struct {
	gap       int
	template  string
	target    string
	err       error
	skipWrite bool
	got       Request
}

func (f *fakeAligner) Align(_ context.Context, req Request) error {
	f.got = req
	if f.err != nil {
		return f.err
	}
	if f.skipWrite {
		return nil
	}
	tpl := "GGG" + strings.Repeat("A", f.gap) + "GGG"
	tgt := "GGG" + strings.Repeat("-", f.gap) + "GGG"
	if f.template != "" {
		tpl = f.template
	}
	if f.target != "" {
		tgt = f.target
	}
	ali := fmt.Sprintf(">P1;%s\nstructureX:%s:%s:%s:%s:%s::::\n%s*\n\n>P1;%s\nsequence:%s:::::::0.00: 0.00\n%s*\n",
		req.TemplateCode, req.AtomFile, req.SegmentStart[len("FIRST:"):], req.SegmentStart, req.SegmentEnd, req.TemplateCode, tpl,
		req.TargetCode, req.TargetCode, tgt)
	if err := os.WriteFile(filepath.Join(req.WorkDir, req.OutputPrefix+".ali"), []byte(ali), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(req.WorkDir, req.OutputPrefix+".pap"), []byte("_aln.pos\n"), 0o644)
}

type alignFixture struct {
	dir    string
	input  Input
	config types.AlignmentConfig
}

func newAlignFixture(t *testing.T, descriptor string) alignFixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.txt"), []byte(descriptor), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4OEE.pdb"), []byte(repairedTemplate()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "P09038.ali"), []byte(">P1;P09038\nsequence:P09038::::::::\nGGGAAGGG*\n"), 0o644))
	return alignFixture{
		dir: dir,
		input: Input{
			TemplateDescriptor: filepath.Join(dir, "template.txt"),
			TargetFile:         filepath.Join(dir, "P09038.ali"),
		},
		config: types.AlignmentConfig{MaxGap: types.DefaultMaxGap},
	}
}

func TestAlign_WritesNamedAlignment(t *testing.T) {
	fx := newAlignFixture(t, "4OEEA\n")
	eng := &fakeAligner{gap: 2}
	var buf bytes.Buffer

	res, err := Align(context.Background(), eng, fx.input, fx.dir, fx.config, &buf)
	require.NoError(t, err)

	assert.Equal(t, "4OEEA", eng.got.TemplateCode)
	assert.Equal(t, "4OEE.pdb", eng.got.AtomFile)
	assert.Equal(t, "FIRST:A", eng.got.SegmentStart)
	assert.Equal(t, "LAST:A", eng.got.SegmentEnd)
	assert.Equal(t, "P09038", eng.got.TargetCode)
	assert.Equal(t, 50, eng.got.MaxGap)
	assert.Equal(t, "P09038-4OEEA", eng.got.OutputPrefix)

	assert.Equal(t, "P09038", res.Name.Target)
	assert.Equal(t, "4OEEA", res.Name.Template)
	assert.FileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.ali"))
	assert.FileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.pap"))
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, 2, res.LongestGap)

	out := buf.String()
	assert.Contains(t, out, "template_name: 4OEE\n")
	assert.Contains(t, out, "Alignment completed. Output files: P09038-4OEEA.ali, P09038-4OEEA.pap")
}

func TestAlign_GapBound(t *testing.T) {
	dashes, domain := strings.Repeat("-", 140), strings.Repeat("A", 146)
	tests := []struct {
		name        string
		eng         *fakeAligner
		wantLongest int
		wantErr     bool
	}{
		{name: "internal target gap at bound", eng: &fakeAligner{gap: 50}, wantLongest: 50},
		{name: "internal target gap over bound", eng: &fakeAligner{gap: 51}, wantErr: true},
		{
			name:    "internal template gap over bound",
			eng:     &fakeAligner{template: "GGG" + strings.Repeat("-", 51) + "GGG", target: strings.Repeat("G", 57)},
			wantErr: true,
		},
		{
			name: "n-terminal template overhang",
			eng:  &fakeAligner{template: dashes + domain, target: strings.Repeat("G", 286)},
		},
		{
			name: "c-terminal template overhang",
			eng:  &fakeAligner{template: domain + dashes, target: strings.Repeat("G", 286)},
		},
		{
			name: "n-terminal target overhang",
			eng:  &fakeAligner{template: strings.Repeat("A", 70), target: strings.Repeat("-", 60) + "GGGGGGGGGG"},
		},
		{
			name: "overhangs at a chain break",
			eng: &fakeAligner{
				template: "AAA" + strings.Repeat("-", 60) + "/" + strings.Repeat("-", 60) + "AAA",
				target:   strings.Repeat("G", 63) + "/" + strings.Repeat("G", 63),
			},
		},
		{
			name: "overhangs around an internal gap",
			eng: &fakeAligner{
				template: dashes + "AAA" + strings.Repeat("-", 7) + "AAA" + dashes,
				target:   strings.Repeat("G", 293),
			},
			wantLongest: 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newAlignFixture(t, "4OEEA")
			res, err := Align(context.Background(), tt.eng, fx.input, fx.dir, fx.config, &bytes.Buffer{})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantLongest, res.LongestGap)
				assert.FileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.ali"))
				assert.FileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.pap"))
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrGapBoundExceeded)
			assert.True(t, types.IsEngineFailure(err))
			assert.NoFileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.ali"))
			assert.NoFileExists(t, filepath.Join(fx.dir, "P09038-4OEEA.pap"))
		})
	}
}

func TestAlign_Failures(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		setup      func(t *testing.T, fx alignFixture)
		eng        *fakeAligner
		wantIs     error
		wantEngine bool
		wantMsg    string
	}{
		{
			name:       "descriptor without chain",
			descriptor: "4OEE",
			eng:        &fakeAligner{},
			wantIs:     types.ErrMalformedDescriptor,
		},
		{
			name:       "chain absent from structure",
			descriptor: "4OEEC",
			eng:        &fakeAligner{},
			wantIs:     types.ErrChainNotFound,
			wantEngine: true,
		},
		{
			name:       "target file missing",
			descriptor: "4OEEA",
			setup: func(t *testing.T, fx alignFixture) {
				require.NoError(t, os.Remove(fx.input.TargetFile))
			},
			eng:    &fakeAligner{},
			wantIs: types.ErrMissingArtifact,
		},
		{
			name:       "repaired structure missing",
			descriptor: "4OEEA",
			setup: func(t *testing.T, fx alignFixture) {
				require.NoError(t, os.Remove(filepath.Join(fx.dir, "4OEE.pdb")))
			},
			eng:     &fakeAligner{},
			wantIs:  types.ErrMissingArtifact,
			wantMsg: "run repair first",
		},
		{
			name:       "engine failure",
			descriptor: "4OEEA",
			eng:        &fakeAligner{err: errors.New("ModellerError: sequence mismatch")},
			wantEngine: true,
			wantMsg:    "alignment engine failed: ModellerError: sequence mismatch",
		},
		{
			name:       "engine wrote nothing",
			descriptor: "4OEEA",
			eng:        &fakeAligner{skipWrite: true},
			wantEngine: true,
			wantMsg:    "expected output P09038-4OEEA.ali not written",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newAlignFixture(t, tt.descriptor)
			if tt.setup != nil {
				tt.setup(t, fx)
			}
			_, err := Align(context.Background(), tt.eng, fx.input, fx.dir, fx.config, &bytes.Buffer{})
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.Equal(t, tt.wantEngine, types.IsEngineFailure(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestAlign_ChainFailureSkipsEngine(t *testing.T) {
	fx := newAlignFixture(t, "4OEEZ")
	eng := &fakeAligner{}
	_, err := Align(context.Background(), eng, fx.input, fx.dir, fx.config, &bytes.Buffer{})
	require.Error(t, err)
	assert.Empty(t, eng.got.OutputPrefix)
}
