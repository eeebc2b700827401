// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/homology-engine/internal/container"
	"github.com/pdiddy/homology-engine/internal/modeller"
)

// targetMount is where the target sequence's directory is mounted.
const targetMount = "/target"

// Modeller aligns with MODELLER's align2d in a container.
type Modeller struct {
	runner *modeller.Runner
}

// NewModeller creates an aligner backed by runner.
func NewModeller(runner *modeller.Runner) *Modeller {
	return &Modeller{runner: runner}
}

type alignRequest struct {
	AtomFile     string `json:"atom_file"`
	SegmentStart string `json:"segment_start"`
	SegmentEnd   string `json:"segment_end"`
	TemplateCode string `json:"template_code"`
	TargetFile   string `json:"target_file"`
	TargetCode   string `json:"target_code"`
	MaxGap       int    `json:"max_gap"`
	Prefix       string `json:"prefix"`
}

type alignReply struct {
	Files []string `json:"files"`
}

// Align runs align2d and writes the PIR and PAP outputs into req.WorkDir.
func (m *Modeller) Align(ctx context.Context, req Request) error {
	targetDir, err := filepath.Abs(filepath.Dir(req.TargetFile))
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}

	var reply alignReply
	return m.runner.Run(ctx, modeller.Job{
		Script:  modeller.AlignScript,
		WorkDir: req.WorkDir,
		Mounts:  []container.Mount{{Host: targetDir, Container: targetMount}},
		Request: alignRequest{
			AtomFile:     req.AtomFile,
			SegmentStart: req.SegmentStart,
			SegmentEnd:   req.SegmentEnd,
			TemplateCode: req.TemplateCode,
			TargetFile:   targetMount + "/" + filepath.Base(req.TargetFile),
			TargetCode:   req.TargetCode,
			MaxGap:       req.MaxGap,
			Prefix:       req.OutputPrefix,
		},
	}, &reply)
}
