// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/homology-engine/pkg/types"
)

// modelBatch is the batch number the modeling engine stamps into model names.
const modelBatch = 9999

// ModelFileName returns the name of candidate n (1-based) built from
// alignment a: {target}-{template}.B9999000n.pdb. The engine names models
// after the target alone; its driver renames them so that templates
// modeled against one target do not overwrite each other.
func ModelFileName(a AlignmentName, n int) string {
	return fmt.Sprintf("%s.B%04d%04d%s", a.Prefix(), modelBatch, n, ExtPDB)
}

// Stage names one step of the pipeline.
type Stage string

const (
	StageRetrieve Stage = "retrieve"
	StageRepair   Stage = "repair"
	StageAlign    Stage = "align"
	StageModel    Stage = "model"
)

// State is what the working directory says about one template, decoded
// from file names alone.
type State struct {
	Ref        StructureRef
	Raw        bool
	Repaired   bool
	Report     bool
	Alignments []AlignmentState
}

// AlignmentState describes one alignment built against the template.
type AlignmentState struct {
	Name    AlignmentName
	Display bool
	Scores  bool
	Models  []string
}

// Complete reports the last stage whose output exists, or "" when none does.
func (s State) Complete() Stage {
	for _, a := range s.Alignments {
		if len(a.Models) > 0 {
			return StageModel
		}
	}
	switch {
	case len(s.Alignments) > 0:
		return StageAlign
	case s.Repaired:
		return StageRepair
	case s.Raw:
		return StageRetrieve
	}
	return ""
}

// Inspect decodes the pipeline state of d from the files in dir.
func Inspect(dir string, d Descriptor) (State, error) {
	st := State{Ref: StructureRef{ID: d.ID, Chain: d.Chain}}
	st.Raw = exists(filepath.Join(dir, RawStructureName(d.ID)))
	st.Repaired = exists(filepath.Join(dir, RepairedStructureName(d.ID)))
	st.Report = exists(filepath.Join(dir, RepairReportName(d.ID)))

	switch {
	case st.Repaired:
		st.Ref.Status = types.StructureRepaired
	case st.Raw:
		st.Ref.Status = types.StructureRaw
	}

	code := AlignCode(d.ID, d.Chain)
	if !d.HasChain() {
		code += "*"
	}
	pattern := filepath.Join(dir, "*"+nameSeparator+code+ExtAlignment)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return st, fmt.Errorf("listing alignments: %w", err)
	}
	sort.Strings(matches)

	for _, m := range matches {
		name, err := ParseAlignmentName(m)
		if err != nil {
			continue
		}
		if !d.HasChain() && !strings.HasPrefix(name.Template, d.ID) {
			continue
		}
		as := AlignmentState{
			Name:    name,
			Display: exists(filepath.Join(dir, DisplayFileName(name.Prefix()))),
			Scores:  exists(filepath.Join(dir, ModelScoresName(name))),
		}
		models, err := filepath.Glob(filepath.Join(dir, name.Prefix()+".B*"+ExtPDB))
		if err != nil {
			return st, fmt.Errorf("listing models: %w", err)
		}
		sort.Strings(models)
		for _, p := range models {
			as.Models = append(as.Models, filepath.Base(p))
		}
		st.Alignments = append(st.Alignments, as)
	}
	return st, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
