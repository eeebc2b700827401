// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package modeller runs MODELLER driver scripts inside a container with the
// working directory mounted, exchanging one JSON request and one JSON reply.
package modeller

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/homology-engine/internal/container"
)

// containerWorkDir is where the host working directory is mounted.
const containerWorkDir = "/work"

// Driver scripts run with "python3 -c".
var (
	//go:embed scripts/align2d.py
	AlignScript string

	//go:embed scripts/automodel.py
	AutoModelScript string
)

// Runner executes MODELLER scripts in a container image.
type Runner struct {
	runtime container.Runtime
	image   string
	env     map[string]string
}

// NewRunner creates a runner for image. env typically carries KEY_MODELLER.
// It verifies that the image exists locally before returning.
func NewRunner(rt container.Runtime, image string, env map[string]string) (*Runner, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("modeller image not available in %s: %w", rt.Name(), err)
	}
	return &Runner{runtime: rt, image: image, env: env}, nil
}

// Job is one script invocation.
type Job struct {
	Script string

	// WorkDir is the host directory mounted as the script's working directory.
	WorkDir string

	// Extra mounts, e.g. a target sequence outside WorkDir.
	Mounts []container.Mount

	// Request is marshaled to JSON and passed as the script's first argument.
	Request any
}

// reply is the envelope every driver prints.
type reply struct {
	Error string `json:"error"`
}

// ContainerPath returns the in-container path of a file name relative to
// the mounted working directory.
func ContainerPath(name string) string {
	return containerWorkDir + "/" + name
}

// Run executes job and decodes the script's JSON reply into out. A reply
// carrying "error" is returned as that error, verbatim.
func (r *Runner) Run(ctx context.Context, job Job, out any) error {
	req, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("encoding modeller request: %w", err)
	}

	mounts := append([]container.Mount{{Host: job.WorkDir, Container: containerWorkDir}}, job.Mounts...)

	var stdout, stderr bytes.Buffer
	runErr := r.runtime.Run(ctx, container.RunSpec{
		Image:   r.image,
		Args:    []string{"python3", "-c", job.Script, string(req)},
		Env:     r.env,
		Mounts:  mounts,
		WorkDir: containerWorkDir,
		Stdout:  &stdout,
		Stderr:  &stderr,
	})
	return decodeReply(stdout.Bytes(), stderr.String(), runErr, out)
}

// lastLine returns the final non-empty line of b, where drivers print
// their reply after MODELLER's own log output.
func lastLine(b []byte) []byte {
	b = bytes.TrimRight(b, " \t\r\n")
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return b[i+1:]
	}
	return b
}

func decodeReply(stdout []byte, stderr string, runErr error, out any) error {
	stdout = lastLine(stdout)
	var env reply
	if err := json.Unmarshal(stdout, &env); err != nil {
		if runErr != nil {
			return withStderr(runErr, stderr)
		}
		return fmt.Errorf("decoding modeller output: %w", err)
	}
	if env.Error != "" {
		return errors.New(env.Error)
	}
	if runErr != nil {
		return withStderr(runErr, stderr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return fmt.Errorf("decoding modeller output: %w", err)
	}
	return nil
}

// withStderr appends the last line of stderr, which for a Python failure
// is the exception message.
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
