// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repair

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/homology-engine/internal/container"
	"github.com/pdiddy/homology-engine/pkg/types"
)

//go:embed scripts/fix_structure.py
var fixScript string

// PDBFixer repairs structures by piping them through the fix_structure
// driver inside a PDBFixer/OpenMM container image.
type PDBFixer struct {
	runtime container.Runtime
	image   string
}

// NewPDBFixer creates a repair engine that uses rt to run image. It
// verifies that the image exists locally before returning.
func NewPDBFixer(rt container.Runtime, image string) (*PDBFixer, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("pdbfixer image not available in %s: %w", rt.Name(), err)
	}
	return &PDBFixer{runtime: rt, image: image}, nil
}

// fixerOutput is the JSON document the driver prints.
type fixerOutput struct {
	types.RepairReport
	Structure string `json:"structure"`
	Error     string `json:"error"`
	Step      int    `json:"step"`
}

// Repair runs all four repair steps in one container invocation.
func (p *PDBFixer) Repair(ctx context.Context, raw io.Reader, opts Options) (*Fixed, error) {
	var stdout, stderr bytes.Buffer
	runErr := p.runtime.Run(ctx, container.RunSpec{
		Image:  p.image,
		Args:   []string{"python3", "-c", fixScript, strconv.FormatFloat(opts.PH, 'f', -1, 64)},
		Stdin:  raw,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return decodeFixerOutput(stdout.Bytes(), stderr.String(), runErr)
}

// decodeFixerOutput turns the driver's stdout into a Fixed result. A
// driver-reported error takes precedence over the container's exit error
// since it names the failing step.
func decodeFixerOutput(stdout []byte, stderr string, runErr error) (*Fixed, error) {
	var out fixerOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		if runErr != nil {
			return nil, &types.EngineError{Engine: "repair", Err: withStderr(runErr, stderr)}
		}
		return nil, &types.EngineError{Engine: "repair", Err: fmt.Errorf("decoding pdbfixer output: %w", err)}
	}
	if out.Error != "" {
		return nil, &types.EngineError{Engine: "repair", Step: out.Step, Err: errors.New(out.Error)}
	}
	if runErr != nil {
		return nil, &types.EngineError{Engine: "repair", Err: withStderr(runErr, stderr)}
	}
	if out.Structure == "" {
		return nil, &types.EngineError{Engine: "repair", Err: errors.New("pdbfixer produced no structure")}
	}
	return &Fixed{Structure: []byte(out.Structure), Report: out.RepairReport}, nil
}

func withStderr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	if i := strings.LastIndexByte(stderr, '\n'); i >= 0 {
		stderr = stderr[i+1:]
	}
	return fmt.Errorf("%w: %s", err, stderr)
}
