package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults for the fixed pipeline constants.
const (
	DefaultRCSBBaseURL   = "https://files.rcsb.org/download/"
	DefaultHTTPTimeout   = 60 * time.Second
	DefaultUserAgent     = "homology-engine/0.1"
	DefaultPH            = 7.0
	DefaultMaxGap        = 50
	DefaultModelCount    = 5
	DefaultPDBFixerImage = "pdbfixer:latest"
	DefaultModellerImage = "modeller:latest"
	DefaultLedgerPath    = ".homology/ledger.db"
	DefaultJobs          = 1
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "homology-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetrievalConfig holds settings for the structure retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the download endpoint; the identifier and ".pdb" are appended.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Force overwrites an existing {id}_tobefixed.pdb instead of refusing.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`
}

// RepairConfig holds settings for the structure repair stage.
type RepairConfig struct {
	// PH is the pH at which missing hydrogens are added (default 7.0).
	// Zero means unset; an explicit value must lie in (0, 14].
	PH float64 `json:"ph" yaml:"ph" mapstructure:"ph" validate:"gt=0,lte=14"`

	// SkipReport disables writing the {id}_repair.yaml audit file. The audit
	// trail is still printed.
	SkipReport bool `json:"skip_report" yaml:"skip_report" mapstructure:"skip_report"`
}

// AlignmentConfig holds settings for the alignment stage.
type AlignmentConfig struct {
	// MaxGap is the longest contiguous gap permitted in the alignment (default 50).
	MaxGap int `json:"max_gap" yaml:"max_gap" mapstructure:"max_gap" validate:"gte=1"`
}

// ModelingConfig holds settings for the model generation stage.
type ModelingConfig struct {
	// Count is the number of candidate models to build (default 5).
	Count int `json:"count" yaml:"count" mapstructure:"count" validate:"gte=1"`

	// Assess lists the quality metrics computed for each model.
	Assess []AssessMethod `json:"assess" yaml:"assess" mapstructure:"assess" validate:"dive,oneof=DOPE GA341"`
}

// EngineConfig selects the container runtime and images for the external engines.
type EngineConfig struct {
	// Runtime is "docker", "podman", or empty for auto-detection.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime" validate:"omitempty,oneof=docker podman"`

	// PDBFixerImage runs the repair engine.
	PDBFixerImage string `json:"pdbfixer_image" yaml:"pdbfixer_image" mapstructure:"pdbfixer_image" validate:"required"`

	// ModellerImage runs the alignment and modeling engines.
	ModellerImage string `json:"modeller_image" yaml:"modeller_image" mapstructure:"modeller_image" validate:"required"`
}

// LedgerConfig controls the run-history database.
type LedgerConfig struct {
	// Path is the SQLite file, relative to the working directory.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Disabled turns off history recording.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	// WorkDir is the directory holding every artifact (default ".").
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	// Jobs bounds how many distinct identifiers "run" processes at once.
	Jobs int `json:"jobs" yaml:"jobs" mapstructure:"jobs" validate:"gte=1"`

	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Repair    RepairConfig    `json:"repair" yaml:"repair" mapstructure:"repair"`
	Alignment AlignmentConfig `json:"alignment" yaml:"alignment" mapstructure:"alignment"`
	Modeling  ModelingConfig  `json:"modeling" yaml:"modeling" mapstructure:"modeling"`
	Engines   EngineConfig    `json:"engines" yaml:"engines" mapstructure:"engines"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
}

// ApplyDefaults fills zero values with the pipeline's fixed constants.
func (c *PipelineConfig) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Jobs <= 0 {
		c.Jobs = DefaultJobs
	}
	if c.Retrieval.BaseURL == "" {
		c.Retrieval.BaseURL = DefaultRCSBBaseURL
	}
	if c.Retrieval.Timeout == 0 {
		c.Retrieval.Timeout = DefaultHTTPTimeout
	}
	if c.Retrieval.UserAgent == "" {
		c.Retrieval.UserAgent = DefaultUserAgent
	}
	if c.Repair.PH == 0 {
		c.Repair.PH = DefaultPH
	}
	if c.Alignment.MaxGap == 0 {
		c.Alignment.MaxGap = DefaultMaxGap
	}
	if c.Modeling.Count == 0 {
		c.Modeling.Count = DefaultModelCount
	}
	if len(c.Modeling.Assess) == 0 {
		c.Modeling.Assess = []AssessMethod{AssessDOPE, AssessGA341}
	}
	if c.Engines.PDBFixerImage == "" {
		c.Engines.PDBFixerImage = DefaultPDBFixerImage
	}
	if c.Engines.ModellerImage == "" {
		c.Engines.ModellerImage = DefaultModellerImage
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = DefaultLedgerPath
	}
}

// Validate checks the configuration against its struct constraints.
func (c *PipelineConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DefaultConfig returns a PipelineConfig with every default applied.
func DefaultConfig() PipelineConfig {
	var c PipelineConfig
	c.ApplyDefaults()
	return c
}
