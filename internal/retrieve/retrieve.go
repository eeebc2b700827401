// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve downloads a template structure and stores it under the
// not-yet-repaired name {id}_tobefixed.pdb.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// Fetcher retrieves the raw PDB-format structure for an identifier from a
// remote structure database and writes it to w.
type Fetcher interface {
	Fetch(ctx context.Context, id string, w io.Writer) error
}

// Result describes a retrieved structure.
type Result struct {
	Ref   artifact.StructureRef
	Path  string
	Bytes int64
}

var errEmptyStructure = errors.New("structure service returned no data")

// Retrieve fetches id once and writes it to {id}_tobefixed.pdb in workDir.
// The download goes to a temporary file first and is renamed into place
// only when complete. An existing destination is an error unless
// cfg.Force is set.
func Retrieve(ctx context.Context, f Fetcher, id, workDir string, cfg types.RetrievalConfig, w io.Writer) (*Result, error) {
	ref := artifact.StructureRef{ID: id, Status: types.StructureRaw}
	dest := filepath.Join(workDir, ref.FileName())

	if _, err := os.Stat(dest); err == nil && !cfg.Force {
		return nil, fmt.Errorf("%s: %w (use --force to overwrite)", dest, types.ErrArtifactExists)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", workDir, err)
	}

	fmt.Fprintf(w, "downloading: %s (pdb)\n", id)

	tmpFile, err := os.CreateTemp(workDir, ".retrieve-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	counter := &countingWriter{w: tmpFile}
	fetchErr := f.Fetch(ctx, id, counter)
	closeErr := tmpFile.Close()

	switch {
	case fetchErr != nil:
		os.Remove(tmpPath)
		return nil, &types.EngineError{Engine: "retrieval", Err: fetchErr}
	case closeErr != nil:
		os.Remove(tmpPath)
		return nil, fmt.Errorf("closing temp file: %w", closeErr)
	case counter.n == 0:
		os.Remove(tmpPath)
		return nil, &types.EngineError{Engine: "retrieval", Err: fmt.Errorf("%s: %w", id, errEmptyStructure)}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("renaming download to %s: %w", dest, err)
	}

	fmt.Fprintf(w, "PDB file renamed to %s\n", ref.FileName())
	return &Result{Ref: ref, Path: dest, Bytes: counter.n}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
