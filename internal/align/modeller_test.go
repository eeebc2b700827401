// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/homology-engine/internal/container"
	"github.com/pdiddy/homology-engine/internal/modeller"
)

type stubRuntime struct {
	stdout  string
	gotSpec container.RunSpec
}

func (s *stubRuntime) Name() string { return "docker" }
func (s *stubRuntime) Available() bool { return true }
func (s *stubRuntime) ImageExists(string) error { return nil }

func (s *stubRuntime) Run(_ context.Context, spec container.RunSpec) error {
	s.gotSpec = spec
	io.WriteString(spec.Stdout, s.stdout)
	return nil
}

func TestModeller_Align(t *testing.T) {
	rt := &stubRuntime{stdout: `{"files": ["P09038-4OEEA.ali", "P09038-4OEEA.pap"]}`}
	runner, err := modeller.NewRunner(rt, "modeller:latest", map[string]string{"KEY_MODELLER": "k"})
	require.NoError(t, err)

	err = NewModeller(runner).Align(context.Background(), Request{
		WorkDir:      "/runs/fgf2",
		TemplateCode: "4OEEA",
		AtomFile:     "4OEE.pdb",
		SegmentStart: "FIRST:A",
		SegmentEnd:   "LAST:A",
		TargetCode:   "P09038",
		TargetFile:   "/seqs/P09038.ali",
		MaxGap:       50,
		OutputPrefix: "P09038-4OEEA",
	})
	require.NoError(t, err)

	assert.Equal(t, []container.Mount{
		{Host: "/runs/fgf2", Container: "/work"},
		{Host: "/seqs", Container: "/target"},
	}, rt.gotSpec.Mounts)

	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(rt.gotSpec.Args[3]), &req))
	assert.Equal(t, "/target/P09038.ali", req["target_file"])
	assert.Equal(t, "FIRST:A", req["segment_start"])
	assert.Equal(t, "LAST:A", req["segment_end"])
	assert.Equal(t, "4OEEA", req["template_code"])
	assert.Equal(t, float64(50), req["max_gap"])
	assert.Equal(t, "P09038-4OEEA", req["prefix"])
}
