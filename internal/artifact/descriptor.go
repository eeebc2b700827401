// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact implements the file-naming contract that carries pipeline
// state between stages: descriptor parsing, structure and alignment file
// names, and the pure encode/decode functions between them.
package artifact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/homology-engine/pkg/types"
)

const (
	idLen    = 4
	chainPos = 4
	minLine  = chainPos + 1
)

// Descriptor is the identifier and chain selector read from a descriptor
// file's first line. Chain is zero when it was not requested.
type Descriptor struct {
	ID    string
	Chain rune
}

// HasChain reports whether a chain selector was extracted.
func (d Descriptor) HasChain() bool { return d.Chain != 0 }

// ChainString returns the chain selector as a string, or "" when absent.
func (d Descriptor) ChainString() string {
	if d.Chain == 0 {
		return ""
	}
	return string(d.Chain)
}

// DescriptorOptions controls extraction.
type DescriptorOptions struct {
	// IncludeChain returns the fifth character as the chain selector.
	// The line must hold at least five characters either way.
	IncludeChain bool
}

// ReadDescriptor opens path and extracts the descriptor from its first line.
func ReadDescriptor(path string, opts DescriptorOptions) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Descriptor{}, fmt.Errorf("descriptor %s: %w", path, types.ErrMissingArtifact)
		}
		return Descriptor{}, fmt.Errorf("opening descriptor %s: %w", path, err)
	}
	defer f.Close()

	d, err := ParseDescriptor(f, opts)
	if err != nil {
		return Descriptor{}, fmt.Errorf("descriptor %s: %w", path, err)
	}
	return d, nil
}

// ParseDescriptor reads only the first line from r, strips trailing
// whitespace, and slices it by character position: characters 0-3 are the
// identifier and character 4 the chain. No case or whitespace
// normalization is applied.
func ParseDescriptor(r io.Reader, opts DescriptorOptions) (Descriptor, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return Descriptor{}, fmt.Errorf("reading first line: %w", err)
	}
	line = strings.TrimRight(line, " \t\r\n\v\f")

	chars := []rune(line)
	if len(chars) < minLine {
		return Descriptor{}, fmt.Errorf("%w: first line %q has %d characters, need at least %d",
			types.ErrMalformedDescriptor, line, len(chars), minLine)
	}

	d := Descriptor{ID: string(chars[:idLen])}
	if opts.IncludeChain {
		d.Chain = chars[chainPos]
	}
	return d, nil
}
