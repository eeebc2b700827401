// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StructureStatus is the processing state a structure file name encodes.
type StructureStatus string

const (
	StructureRaw      StructureStatus = "raw"
	StructureRepaired StructureStatus = "repaired"
)

// CountDelta records a count before and after a repair step.
type CountDelta struct {
	Before int `json:"before" yaml:"before"`
	After  int `json:"after" yaml:"after"`
}

// Added returns how many items the step inserted. Never negative.
func (d CountDelta) Added() int {
	if d.After > d.Before {
		return d.After - d.Before
	}
	return 0
}

// ResidueRef identifies one residue by name, chain, and residue id.
type ResidueRef struct {
	Name  string `json:"name" yaml:"name"`
	Chain string `json:"chain" yaml:"chain"`
	ID    string `json:"id" yaml:"id"`
}

// HydrogenStep records the unconditional hydrogen addition.
type HydrogenStep struct {
	PH    float64    `json:"ph" yaml:"ph"`
	Atoms CountDelta `json:"atoms" yaml:"atoms"`
}

// RepairReport is the audit trail of one repair run: every defect the
// engine found and fixed, in step order.
type RepairReport struct {
	StructureID string `json:"structure_id" yaml:"structure_id"`
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`

	// Step 1.
	MissingResidues CountDelta `json:"missing_residues" yaml:"missing_residues"`

	// Step 2: residues found before replacement.
	NonstandardResidues []ResidueRef `json:"nonstandard_residues" yaml:"nonstandard_residues"`

	// Step 3.
	MissingAtoms CountDelta `json:"missing_atoms" yaml:"missing_atoms"`

	// Step 4.
	Hydrogens HydrogenStep `json:"hydrogens" yaml:"hydrogens"`

	RepairedAt time.Time `json:"repaired_at" yaml:"repaired_at"`
}

// Clean reports whether the engine found nothing to fix in steps 1-3.
func (r RepairReport) Clean() bool {
	return r.MissingResidues.Added() == 0 &&
		len(r.NonstandardResidues) == 0 &&
		r.MissingAtoms.Added() == 0
}
