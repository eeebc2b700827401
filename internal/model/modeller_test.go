// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/homology-engine/internal/container"
	"github.com/pdiddy/homology-engine/internal/modeller"
	"github.com/pdiddy/homology-engine/pkg/types"
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

func TestModeller_Build(t *testing.T) {
	rt := &stubRuntime{stdout: "automodel log\n" +
		`{"models": [{"index": 1, "file": "P09038-4oeeA.B99990001.pdb", "molpdf": 1013.2, "dope": -14211.5, "ga341": 1.0}]}` + "\n"}
	runner, err := modeller.NewRunner(rt, "modeller:latest", nil)
	require.NoError(t, err)

	models, err := NewModeller(runner).Build(context.Background(), BuildRequest{
		WorkDir:       "/runs/fgf2",
		AlignmentFile: "P09038-4oeeA.ali",
		Known:         "4oeeA",
		Sequence:      "P09038",
		OutputPrefix:  "P09038-4oeeA",
		Count:         1,
		Assess:        []types.AssessMethod{types.AssessDOPE, types.AssessGA341},
	})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, -14211.5, models[0].DOPE)
	assert.Equal(t, "P09038-4oeeA.B99990001.pdb", models[0].File)

	assert.Contains(t, rt.gotSpec.Args[2], "AutoModel(")
	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(rt.gotSpec.Args[3]), &req))
	assert.Equal(t, "P09038-4oeeA.ali", req["alignment"])
	assert.Equal(t, "4oeeA", req["known"])
	assert.Equal(t, "P09038", req["sequence"])
	assert.Equal(t, []any{"DOPE", "GA341"}, req["assess"])
	assert.Equal(t, "P09038-4oeeA", req["prefix"])
}
