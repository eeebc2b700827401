// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structure reads a PDB-format coordinate file with
// github.com/TuftsBCB/io/pdb and reduces it to what the naming contract
// relies on: which chains exist and how many residues and atoms each holds.
package structure

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/TuftsBCB/io/pdb"
)

// recordWidth is the fixed PDB record width. Shorter records are padded
// before parsing.
const recordWidth = 80

// Chain counts the coordinate records of one chain.
type Chain struct {
	ID       byte
	Residues int
	Atoms    int
	// Hetero counts residues made only of HETATM records.
	Hetero int
}

// Summary is the per-chain content of the first model of a structure file.
type Summary struct {
	Chains map[byte]*Chain
}

// ChainIDs returns the chain identifiers in sorted order.
func (s Summary) ChainIDs() []byte {
	ids := make([]byte, 0, len(s.Chains))
	for id := range s.Chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasChain reports whether id holds at least one polymer residue. Chains of
// waters or ligands alone do not count.
func (s Summary) HasChain(id rune) bool {
	if id <= 0 || id > 0x7f {
		return false
	}
	c, ok := s.Chains[byte(id)]
	return ok && c.Residues > c.Hetero
}

// Residues returns the residue count over all chains.
func (s Summary) Residues() int {
	n := 0
	for _, c := range s.Chains {
		n += c.Residues
	}
	return n
}

// Atoms returns the atom count over all chains.
func (s Summary) Atoms() int {
	n := 0
	for _, c := range s.Chains {
		n += c.Atoms
	}
	return n
}

// ScanFile opens path and scans it.
func ScanFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	s, err := read(f, path)
	if err != nil {
		return Summary{}, fmt.Errorf("scanning %s: %w", path, err)
	}
	return s, nil
}

// Scan reads the ATOM and HETATM records of the first model from r.
func Scan(r io.Reader) (Summary, error) {
	return read(r, "structure.pdb")
}

func read(r io.Reader, name string) (Summary, error) {
	records, err := firstModel(r)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Chains: make(map[byte]*Chain)}
	if len(records) == 0 {
		return s, nil
	}

	entry, err := pdb.Read(bytes.NewReader(records), name)
	if err != nil {
		return Summary{}, err
	}
	for _, c := range entry.Chains {
		if len(c.Models) == 0 {
			continue
		}
		sc := &Chain{ID: c.Ident}
		for _, res := range c.Models[0].Residues {
			if len(res.Atoms) == 0 {
				continue
			}
			sc.Residues++
			sc.Atoms += len(res.Atoms)
			if allHet(res.Atoms) {
				sc.Hetero++
			}
		}
		if sc.Residues > 0 {
			s.Chains[c.Ident] = sc
		}
	}
	return s, nil
}

// firstModel copies the coordinate records up to the first ENDMDL, each
// padded to the full record width.
func firstModel(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if !strings.HasPrefix(line, "ATOM  ") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		if len(line) < recordWidth {
			line += strings.Repeat(" ", recordWidth-len(line))
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func allHet(atoms []pdb.Atom) bool {
	for _, a := range atoms {
		if !a.Het {
			return false
		}
	}
	return true
}
