// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/homology-engine/pkg/types"
)

// File name pieces of the inter-stage contract.
const (
	ExtPDB       = ".pdb"
	ExtAlignment = ".ali"
	ExtDisplay   = ".pap"

	rawSuffix     = "_tobefixed"
	reportSuffix  = "_repair.yaml"
	modelsSuffix  = "_models.yaml"
	nameSeparator = "-"
)

// StructureRef is the typed form of a structure file name: which entry,
// which chain, and how far through the pipeline it is.
type StructureRef struct {
	ID     string
	Chain  rune
	Status types.StructureStatus
}

// FileName encodes the reference as the structure file name for its status.
func (s StructureRef) FileName() string {
	if s.Status == types.StructureRaw {
		return RawStructureName(s.ID)
	}
	return RepairedStructureName(s.ID)
}

// AlignCode returns the alignment code the template is registered under.
func (s StructureRef) AlignCode() string {
	return AlignCode(s.ID, s.Chain)
}

// RawStructureName returns {id}_tobefixed.pdb.
func RawStructureName(id string) string { return id + rawSuffix + ExtPDB }

// RepairedStructureName returns {id}.pdb.
func RepairedStructureName(id string) string { return id + ExtPDB }

// RepairReportName returns {id}_repair.yaml.
func RepairReportName(id string) string { return id + reportSuffix }

// AlignCode returns {id}{chain}.
func AlignCode(id string, chain rune) string {
	if chain == 0 {
		return id
	}
	return id + string(chain)
}

// AlignmentPrefix returns {target}-{id}{chain}, the stem shared by the
// alignment's .ali and .pap files.
func AlignmentPrefix(target, id string, chain rune) string {
	return target + nameSeparator + AlignCode(id, chain)
}

// AlignmentFileName returns {prefix}.ali.
func AlignmentFileName(prefix string) string { return prefix + ExtAlignment }

// DisplayFileName returns {prefix}.pap.
func DisplayFileName(prefix string) string { return prefix + ExtDisplay }

// ModelScoresName returns {target}-{template}_models.yaml.
func ModelScoresName(a AlignmentName) string { return a.Prefix() + modelsSuffix }

// TargetName derives the target code from a target alignment-source path
// by stripping the directory and the .ali suffix.
func TargetName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ExtAlignment)
}

// ParseStructureName decodes a structure file name back into a StructureRef.
// Chain is never encoded in structure names and is left zero.
func ParseStructureName(name string) (StructureRef, error) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, ExtPDB) {
		return StructureRef{}, fmt.Errorf("%q is not a %s structure file", name, ExtPDB)
	}
	stem := strings.TrimSuffix(base, ExtPDB)
	status := types.StructureRepaired
	if strings.HasSuffix(stem, rawSuffix) {
		stem = strings.TrimSuffix(stem, rawSuffix)
		status = types.StructureRaw
	}
	if stem == "" {
		return StructureRef{}, fmt.Errorf("%q has no identifier", name)
	}
	return StructureRef{ID: stem, Status: status}, nil
}

// AlignmentName is the decoded form of {target}-{template}.ali. Template
// is the full alignment code (identifier and chain); it is not split further.
type AlignmentName struct {
	Target   string
	Template string
}

// Prefix re-encodes the name without extension.
func (a AlignmentName) Prefix() string {
	return a.Target + nameSeparator + a.Template
}

// FileName re-encodes the name as an .ali file name.
func (a AlignmentName) FileName() string { return AlignmentFileName(a.Prefix()) }

// ParseAlignmentName strips the directory and .ali extension, then splits
// on "-". Exactly two non-empty fields are required. A target or template
// that itself contains "-" cannot be told apart from a malformed name and
// is rejected.
func ParseAlignmentName(name string) (AlignmentName, error) {
	stem := strings.TrimSuffix(filepath.Base(name), ExtAlignment)
	fields := strings.Split(stem, nameSeparator)
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return AlignmentName{}, fmt.Errorf(
			"%w: %q must be in the format 'target-template.ali' (e.g. P09038-4oeeA.ali)",
			types.ErrMalformedAlignmentName, name)
	}
	return AlignmentName{Target: fields[0], Template: fields[1]}, nil
}
