// Package pipeline runs a one-shot, dependency-ordered set of stages. A
// stage executes only after every stage it needs has succeeded, and only if
// its gate condition holds. Nothing survives across runs; a Pipeline is
// built, executed once, and discarded.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the lifecycle state of a stage within a single run.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Stage is a unit of work scheduled by the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Func      func(ctx context.Context) error
}

func (s StageFunc) Name() string                  { return s.StageName }
func (s StageFunc) Run(ctx context.Context) error { return s.Func(ctx) }

// Recorder observes stage transitions. Implementations must tolerate being
// called from multiple goroutines.
type Recorder interface {
	StageStarted(ctx context.Context, stage string)
	StageFinished(ctx context.Context, stage string, status Status, stageErr error)
}

// NopRecorder discards all transitions. It is the default when no run
// history is configured.
type NopRecorder struct{}

func (NopRecorder) StageStarted(context.Context, string)                 {}
func (NopRecorder) StageFinished(context.Context, string, Status, error) {}

// StageResult is the outcome of one stage in the run report.
type StageResult struct {
	Name     string
	Status   Status
	Err      error
	Reason   string // why a stage was skipped, empty otherwise
	Duration time.Duration
}

// Report collects per-stage outcomes in registration order.
type Report struct {
	Stages []StageResult
}

// Failed reports whether any executed stage failed.
func (r Report) Failed() bool {
	for _, stage := range r.Stages {
		if stage.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Result returns the result for a named stage.
func (r Report) Result(name string) (StageResult, bool) {
	for _, stage := range r.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return StageResult{}, false
}

type stageSpec struct {
	stage     Stage
	needs     []string
	condition func() bool
}

// StageOption configures a registered stage.
type StageOption func(*stageSpec)

// WithNeeds declares dependency edges; the stage runs only after every named
// stage has succeeded.
func WithNeeds(names ...string) StageOption {
	return func(spec *stageSpec) {
		spec.needs = append(spec.needs, names...)
	}
}

// WithCondition gates the stage. The condition is evaluated only after all
// dependencies completed successfully; a false condition skips the stage
// without failing the run.
func WithCondition(condition func() bool) StageOption {
	return func(spec *stageSpec) {
		spec.condition = condition
	}
}

// Pipeline is a one-shot set of stages with dependency edges.
type Pipeline struct {
	specs    []*stageSpec
	recorder Recorder
}

// New creates an empty pipeline. A nil recorder falls back to NopRecorder.
func New(recorder Recorder) *Pipeline {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Pipeline{recorder: recorder}
}

// Add registers a stage.
func (p *Pipeline) Add(stage Stage, opts ...StageOption) {
	spec := &stageSpec{stage: stage}
	for _, opt := range opts {
		opt(spec)
	}
	p.specs = append(p.specs, spec)
}

// Execute runs the pipeline to completion. Stages whose dependencies are all
// satisfied run concurrently; a failed or skipped dependency skips its
// dependents. Execute returns the report and a non-nil error if any executed
// stage failed.
func (p *Pipeline) Execute(ctx context.Context) (Report, error) {
	logger := zerolog.Ctx(ctx)

	statuses := make(map[string]Status, len(p.specs))
	results := make(map[string]StageResult, len(p.specs))
	for _, spec := range p.specs {
		name := spec.stage.Name()
		if _, exists := statuses[name]; exists {
			return Report{}, fmt.Errorf("duplicate stage %q", name)
		}
		statuses[name] = StatusPending
	}

	for _, spec := range p.specs {
		for _, need := range spec.needs {
			if _, ok := statuses[need]; !ok {
				return Report{}, fmt.Errorf("stage %q needs unknown stage %q", spec.stage.Name(), need)
			}
		}
	}

	remaining := len(p.specs)
	for remaining > 0 {
		ready := p.readyStages(statuses)
		if len(ready) == 0 {
			return Report{}, fmt.Errorf("dependency cycle among remaining stages")
		}

		// Resolve skips before launching anything so the status map is only
		// touched concurrently under the mutex below.
		var runnable []*stageSpec
		for _, spec := range ready {
			name := spec.stage.Name()
			if reason := p.skipReason(spec, statuses); reason != "" {
				statuses[name] = StatusSkipped
				results[name] = StageResult{Name: name, Status: StatusSkipped, Reason: reason}
				logger.Info().Str("stage", name).Str("reason", reason).Msg("stage skipped")
				p.recorder.StageFinished(ctx, name, StatusSkipped, nil)
				remaining--
				continue
			}
			statuses[name] = StatusRunning
			runnable = append(runnable, spec)
		}

		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, spec := range runnable {
			name := spec.stage.Name()

			wg.Add(1)
			go func(spec *stageSpec) {
				defer wg.Done()

				logger.Info().Str("stage", name).Msg("stage started")
				p.recorder.StageStarted(ctx, name)

				started := time.Now()
				err := spec.stage.Run(ctx)
				elapsed := time.Since(started)

				status := StatusSuccess
				if err != nil {
					status = StatusFailed
					logger.Error().Err(err).Str("stage", name).Dur("elapsed", elapsed).Msg("stage failed")
				} else {
					logger.Info().Str("stage", name).Dur("elapsed", elapsed).Msg("stage finished")
				}
				p.recorder.StageFinished(ctx, name, status, err)

				mu.Lock()
				statuses[name] = status
				results[name] = StageResult{Name: name, Status: status, Err: err, Duration: elapsed}
				remaining--
				mu.Unlock()
			}(spec)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return p.report(results, statuses), err
		}
	}

	report := p.report(results, statuses)
	if report.Failed() {
		return report, fmt.Errorf("pipeline run failed")
	}
	return report, nil
}

// readyStages returns pending stages whose needs have all reached a terminal
// state.
func (p *Pipeline) readyStages(statuses map[string]Status) []*stageSpec {
	var ready []*stageSpec
	for _, spec := range p.specs {
		if statuses[spec.stage.Name()] != StatusPending {
			continue
		}
		allDone := true
		for _, need := range spec.needs {
			if !statuses[need].Terminal() {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, spec)
		}
	}
	return ready
}

func (p *Pipeline) skipReason(spec *stageSpec, statuses map[string]Status) string {
	for _, need := range spec.needs {
		if statuses[need] != StatusSuccess {
			return fmt.Sprintf("dependency %q did not succeed", need)
		}
	}
	if spec.condition != nil && !spec.condition() {
		return "condition not met"
	}
	return ""
}

func (p *Pipeline) report(results map[string]StageResult, statuses map[string]Status) Report {
	var report Report
	for _, spec := range p.specs {
		name := spec.stage.Name()
		if result, ok := results[name]; ok {
			report.Stages = append(report.Stages, result)
			continue
		}
		// Never reached a terminal state (cancelled run).
		report.Stages = append(report.Stages, StageResult{Name: name, Status: statuses[name]})
	}
	return report
}
