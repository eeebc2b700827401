// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/pdiddy/homology-engine/internal/artifact"
)

// dependencies lists each stage's upstream stage.
var dependencies = [][2]artifact.Stage{
	{artifact.StageRetrieve, artifact.StageRepair},
	{artifact.StageRepair, artifact.StageAlign},
	{artifact.StageAlign, artifact.StageModel},
}

// StageGraph returns the stage dependency DAG.
func StageGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, s := range []artifact.Stage{artifact.StageRetrieve, artifact.StageRepair, artifact.StageAlign, artifact.StageModel} {
		if err := g.AddVertex(string(s)); err != nil {
			return nil, fmt.Errorf("adding stage %s: %w", s, err)
		}
	}
	for _, d := range dependencies {
		if err := g.AddEdge(string(d[0]), string(d[1])); err != nil {
			return nil, fmt.Errorf("linking %s to %s: %w", d[0], d[1], err)
		}
	}
	return g, nil
}

// Order returns the stages in dependency order.
func Order() ([]artifact.Stage, error) {
	g, err := StageGraph()
	if err != nil {
		return nil, err
	}
	names, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, fmt.Errorf("ordering stages: %w", err)
	}
	order := make([]artifact.Stage, len(names))
	for i, n := range names {
		order[i] = artifact.Stage(n)
	}
	return order, nil
}

// WriteDOT renders the stage graph in Graphviz DOT format.
func WriteDOT(w io.Writer) error {
	g, err := StageGraph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}
