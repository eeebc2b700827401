package types

import (
	"errors"
	"fmt"
)

// Failure classes shared by every stage. Stages wrap these with context;
// callers test with errors.Is.
var (
	// ErrMalformedDescriptor means a descriptor file violates the fixed-width
	// identifier+chain layout.
	ErrMalformedDescriptor = errors.New("malformed descriptor")

	// ErrMalformedAlignmentName means an alignment file name is not of the
	// form {target}-{template}.ali.
	ErrMalformedAlignmentName = errors.New("malformed alignment name")

	// ErrMissingArtifact means an expected upstream file is absent.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrArtifactExists means a stage would overwrite an artifact it does not own.
	ErrArtifactExists = errors.New("artifact already exists")

	// ErrChainNotFound means the requested chain has no residues in the structure.
	ErrChainNotFound = errors.New("chain not found in structure")

	// ErrGapBoundExceeded means an alignment contains a gap longer than the
	// configured maximum.
	ErrGapBoundExceeded = errors.New("alignment gap exceeds maximum length")
)

// EngineError is an opaque failure surfaced from an external engine
// (retrieval, repair, alignment, modeling). Err is kept verbatim.
type EngineError struct {
	// Engine names the collaborator: "retrieval", "repair", "alignment", "modeling".
	Engine string

	// Step is the 1-based sub-step that failed, or 0 when not applicable.
	Step int

	Err error
}

func (e *EngineError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%s engine failed at step %d: %v", e.Engine, e.Step, e.Err)
	}
	return fmt.Sprintf("%s engine failed: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsEngineFailure reports whether err came from an external engine.
func IsEngineFailure(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
