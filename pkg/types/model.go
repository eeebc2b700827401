// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AssessMethod names a model quality metric computed by the modeling engine.
type AssessMethod string

const (
	// AssessDOPE is the discrete optimized protein energy pseudo-energy score.
	AssessDOPE AssessMethod = "DOPE"
	// AssessGA341 is the topology-based native-likeness discriminator.
	AssessGA341 AssessMethod = "GA341"
)

// ModelResult is one candidate model and its scores. Scores absent from
// the engine output are left at zero.
type ModelResult struct {
	// Index is the 1-based model number.
	Index int `json:"index" yaml:"index"`

	// File is the model's structure file name in the working directory.
	File string `json:"file" yaml:"file"`

	// Molpdf is the modeling objective function value.
	Molpdf float64 `json:"molpdf" yaml:"molpdf"`

	// DOPE is the DOPE score (lower is better).
	DOPE float64 `json:"dope" yaml:"dope"`

	// GA341 is the GA341 score in [0, 1] (higher is better).
	GA341 float64 `json:"ga341" yaml:"ga341"`

	// Failure carries the engine's message when this model could not be built.
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// ModelSet is every model built for one target/template pair. Ordering is
// the engine's build order; no model is selected.
type ModelSet struct {
	Target    string        `json:"target" yaml:"target"`
	Template  string        `json:"template" yaml:"template"`
	Alignment string        `json:"alignment" yaml:"alignment"`
	Models    []ModelResult `json:"models" yaml:"models"`
}
