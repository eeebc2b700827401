// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/homology-engine/pkg/types"
)

// PIREntry is one sequence of a PIR-format alignment.
type PIREntry struct {
	// Kind is the two-character type after ">", e.g. "P1".
	Kind string
	// Code is the alignment code, e.g. "4OEEA" or "P09038".
	Code string
	// Description is the colon-separated second header line.
	Description string
	// Sequence is the aligned sequence without the "*" terminator.
	Sequence string
}

// IsStructure reports whether the entry describes a template structure.
func (e PIREntry) IsStructure() bool {
	return strings.HasPrefix(e.Description, "structure")
}

// ReadPIRFile parses the PIR alignment at path.
func ReadPIRFile(path string) ([]PIREntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ReadPIR(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// ReadPIR parses PIR entries: a ">Kind;code" line, a description line, and
// sequence lines terminated by "*". Lines outside entries are ignored.
func ReadPIR(r io.Reader) ([]PIREntry, error) {
	var (
		entries  []PIREntry
		cur      *PIREntry
		seq      strings.Builder
		needDesc bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")

		switch {
		case strings.HasPrefix(line, ">"):
			if cur != nil {
				return nil, fmt.Errorf("line %d: entry %s not terminated with '*'", lineNo, cur.Code)
			}
			kind, code, ok := strings.Cut(line[1:], ";")
			if !ok || code == "" {
				return nil, fmt.Errorf("line %d: malformed PIR header %q", lineNo, line)
			}
			cur = &PIREntry{Kind: kind, Code: strings.TrimSpace(code)}
			seq.Reset()
			needDesc = true
		case cur == nil:
			continue
		case needDesc:
			cur.Description = line
			needDesc = false
		default:
			body, done := strings.CutSuffix(line, "*")
			seq.WriteString(strings.Join(strings.Fields(body), ""))
			if done {
				cur.Sequence = seq.String()
				entries = append(entries, *cur)
				cur = nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("entry %s not terminated with '*'", cur.Code)
	}
	return entries, nil
}

// LongestGap returns the longest run of '-' inside seq. A chain break
// ('/') ends a segment, and runs touching either end of a segment are
// terminal overhangs, not gaps.
func LongestGap(seq string) int {
	longest := 0
	for _, seg := range strings.Split(seq, "/") {
		run := 0
		for _, c := range strings.Trim(seg, "-") {
			if c != '-' {
				run = 0
				continue
			}
			run++
			longest = max(longest, run)
		}
	}
	return longest
}

// CheckGaps returns ErrGapBoundExceeded if any entry holds an internal gap
// longer than maxGap.
func CheckGaps(entries []PIREntry, maxGap int) error {
	for _, e := range entries {
		if n := LongestGap(e.Sequence); n > maxGap {
			return fmt.Errorf("%w: %s has a %d-residue gap (max %d)", types.ErrGapBoundExceeded, e.Code, n, maxGap)
		}
	}
	return nil
}
