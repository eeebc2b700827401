// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs retrieve, repair, align, and model in dependency
// order for one or more templates against a target sequence. Stages of one
// template run strictly in sequence; distinct templates may run
// concurrently.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/homology-engine/internal/align"
	"github.com/pdiddy/homology-engine/internal/artifact"
	"github.com/pdiddy/homology-engine/internal/ledger"
	"github.com/pdiddy/homology-engine/internal/model"
	"github.com/pdiddy/homology-engine/internal/repair"
	"github.com/pdiddy/homology-engine/internal/retrieve"
	"github.com/pdiddy/homology-engine/pkg/types"
)

// ErrDuplicateIdentifier is returned when one batch names the same
// structure twice.
var ErrDuplicateIdentifier = errors.New("duplicate identifier in batch")

// Engines are the external collaborators, one per stage.
type Engines struct {
	Fetcher  retrieve.Fetcher
	Repairer repair.Repairer
	Aligner  align.Aligner
	Modeler  model.Modeler
}

// Job is one template descriptor modeled against one target file.
type Job struct {
	Descriptor string
	Target     string
}

// JobResult is the outcome of one job. Failed names the stage that
// stopped it.
type JobResult struct {
	Job       Job
	ID        string
	Alignment artifact.AlignmentName
	Models    *types.ModelSet
	Skipped   []artifact.Stage
	Failed    artifact.Stage
	Err       error
}

// BatchResult summarizes RunBatch.
type BatchResult struct {
	Results   []JobResult
	Succeeded int
	Failed    int
}

// Total returns the number of jobs run.
func (b BatchResult) Total() int { return b.Succeeded + b.Failed }

// Runner executes jobs. A nil Ledger records nothing.
type Runner struct {
	Engines Engines
	Config  types.PipelineConfig
	Ledger  *ledger.Ledger

	// Resume skips stages whose output already exists in the working
	// directory.
	Resume bool

	// The modeling engine writes scratch files named after the target, so
	// model stages never overlap.
	modelMu sync.Mutex
}

// Run executes every stage of job in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, job Job, w io.Writer) JobResult {
	d, err := artifact.ReadDescriptor(job.Descriptor, artifact.DescriptorOptions{IncludeChain: true})
	if err != nil {
		return JobResult{Job: job, Err: err}
	}
	return r.run(ctx, job, d, w)
}

func (r *Runner) run(ctx context.Context, job Job, d artifact.Descriptor, w io.Writer) JobResult {
	res := JobResult{Job: job, ID: d.ID}
	order, err := Order()
	if err != nil {
		res.Err = err
		return res
	}

	target := artifact.TargetName(job.Target)
	res.Alignment = artifact.AlignmentName{Target: target, Template: artifact.AlignCode(d.ID, d.Chain)}

	for _, stage := range order {
		if err := ctx.Err(); err != nil {
			res.Failed, res.Err = stage, err
			return res
		}
		if r.Resume {
			if out, done := r.done(stage, d, res.Alignment); done {
				fmt.Fprintf(w, "skipped: %s %s (%s exists)\n", stage, d.ID, out)
				res.Skipped = append(res.Skipped, stage)
				continue
			}
		}

		fmt.Fprintf(w, "==> %s %s\n", stage, d.ID)
		err := r.Ledger.Track(ctx, string(stage), ledgerKey(stage, d, res.Alignment), func() error {
			return r.runStage(ctx, stage, job, d, &res, w)
		})
		if err != nil {
			res.Failed, res.Err = stage, err
			return res
		}
	}
	return res
}

func (r *Runner) runStage(ctx context.Context, stage artifact.Stage, job Job, d artifact.Descriptor, res *JobResult, w io.Writer) error {
	cfg := r.Config
	switch stage {
	case artifact.StageRetrieve:
		_, err := retrieve.Retrieve(ctx, r.Engines.Fetcher, d.ID, cfg.WorkDir, cfg.Retrieval, w)
		return err
	case artifact.StageRepair:
		_, err := repair.Repair(ctx, r.Engines.Repairer, d.ID, cfg.WorkDir, cfg.Repair, w)
		return err
	case artifact.StageAlign:
		out, err := align.Align(ctx, r.Engines.Aligner, align.Input{TemplateDescriptor: job.Descriptor, TargetFile: job.Target}, cfg.WorkDir, cfg.Alignment, w)
		if err != nil {
			return err
		}
		res.Alignment = out.Name
		return nil
	case artifact.StageModel:
		r.modelMu.Lock()
		defer r.modelMu.Unlock()
		set, err := model.Generate(ctx, r.Engines.Modeler, res.Alignment.FileName(), cfg.WorkDir, cfg.Modeling, w)
		if err != nil {
			return err
		}
		res.Models = set
		return nil
	}
	return fmt.Errorf("unknown stage %q", stage)
}

// done reports whether stage's output is already on disk, and its name.
func (r *Runner) done(stage artifact.Stage, d artifact.Descriptor, name artifact.AlignmentName) (string, bool) {
	var out string
	switch stage {
	case artifact.StageRetrieve:
		// The raw file may have been removed once repaired.
		if present(r.Config.WorkDir, artifact.RepairedStructureName(d.ID)) {
			return artifact.RepairedStructureName(d.ID), true
		}
		out = artifact.RawStructureName(d.ID)
	case artifact.StageRepair:
		out = artifact.RepairedStructureName(d.ID)
	case artifact.StageAlign:
		out = name.FileName()
	case artifact.StageModel:
		out = artifact.ModelScoresName(name)
	}
	return out, out != "" && present(r.Config.WorkDir, out)
}

func present(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// ledgerKey records align and model runs under the alignment prefix and
// the others under the structure identifier.
func ledgerKey(stage artifact.Stage, d artifact.Descriptor, name artifact.AlignmentName) string {
	if stage == artifact.StageAlign || stage == artifact.StageModel {
		return name.Prefix()
	}
	return d.ID
}

// RunBatch runs every job, at most Config.Jobs at a time. Descriptors are
// read up front, and a batch naming one identifier twice is rejected
// before any stage runs since both jobs would write the same files. A
// failed job does not stop the others.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job, w io.Writer) (BatchResult, error) {
	descriptors := make([]artifact.Descriptor, len(jobs))
	seen := make(map[string]string, len(jobs))
	for i, job := range jobs {
		d, err := artifact.ReadDescriptor(job.Descriptor, artifact.DescriptorOptions{IncludeChain: true})
		if err != nil {
			return BatchResult{}, err
		}
		if prev, ok := seen[d.ID]; ok {
			return BatchResult{}, fmt.Errorf("%w: %s in both %s and %s", ErrDuplicateIdentifier, d.ID, prev, job.Descriptor)
		}
		seen[d.ID] = job.Descriptor
		descriptors[i] = d
	}

	limit := r.Config.Jobs
	if limit <= 0 {
		limit = types.DefaultJobs
	}

	results := make([]JobResult, len(jobs))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range jobs {
		i := i
		g.Go(func() error {
			out := w
			var buf bytes.Buffer
			if limit > 1 {
				out = &buf
			}
			res := r.run(ctx, jobs[i], descriptors[i], out)
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			if limit > 1 {
				w.Write(buf.Bytes())
			}
			if res.Err != nil {
				fmt.Fprintf(w, "failed:  %s at %s (%v)\n", res.ID, res.Failed, res.Err)
			}
			return nil
		})
	}
	g.Wait()

	batch := BatchResult{Results: results}
	for _, res := range results {
		if res.Err != nil {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d modeled, %d failed (total: %d)\n",
		batch.Succeeded, batch.Failed, batch.Total())
	return batch, nil
}
