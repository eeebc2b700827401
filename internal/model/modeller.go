// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"

	"github.com/pdiddy/homology-engine/internal/modeller"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// Modeller builds models with MODELLER's AutoModel in a container.
type Modeller struct {
	runner *modeller.Runner
}

// NewModeller creates a modeler backed by runner.
func NewModeller(runner *modeller.Runner) *Modeller {
	return &Modeller{runner: runner}
}

type buildRequest struct {
	Alignment string               `json:"alignment"`
	Known     string               `json:"known"`
	Sequence  string               `json:"sequence"`
	Prefix    string               `json:"prefix"`
	Count     int                  `json:"count"`
	Assess    []types.AssessMethod `json:"assess"`
}

type buildReply struct {
	Models []types.ModelResult `json:"models"`
}

// Build runs AutoModel over req.AlignmentFile. Model files land in req.WorkDir.
func (m *Modeller) Build(ctx context.Context, req BuildRequest) ([]types.ModelResult, error) {
	var reply buildReply
	err := m.runner.Run(ctx, modeller.Job{
		Script:  modeller.AutoModelScript,
		WorkDir: req.WorkDir,
		Request: buildRequest{
			Alignment: req.AlignmentFile,
			Known:     req.Known,
			Sequence:  req.Sequence,
			Prefix:    req.OutputPrefix,
			Count:     req.Count,
			Assess:    req.Assess,
		},
	}, &reply)
	if err != nil {
		return nil, err
	}
	return reply.Models, nil
}
