// Package history records pipeline runs in the optional run-history table.
// Recording is best effort: a history write failure is logged, never allowed
// to fail the release itself.
package history

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/relgate/relgate/internal/dao/rundao"
	"github.com/relgate/relgate/internal/pipeline"
)

// Recorder persists one pipeline run and its per-stage outcomes. It
// implements pipeline.Recorder.
type Recorder struct {
	dao    *rundao.DAO
	pk     rundao.PK
	sk     string
	logger zerolog.Logger

	mu     sync.Mutex
	stages map[string]string
}

// RunInfo identifies the run being recorded.
type RunInfo struct {
	Package     string
	Index       string // eligible target index, "-" for build-only runs
	TriggerKind string
	TestPyPI    string
}

// Begin creates the run record and marks it in progress.
func Begin(ctx context.Context, dao *rundao.DAO, info RunInfo) (*Recorder, error) {
	sk := ksuid.New().String()

	record, err := dao.Create(ctx, rundao.CreateInput{
		Package:     info.Package,
		Index:       info.Index,
		SK:          sk,
		TriggerKind: info.TriggerKind,
		TestPyPI:    info.TestPyPI,
	})
	if err != nil {
		return nil, err
	}

	recorder := &Recorder{
		dao:    dao,
		pk:     record.PK,
		sk:     sk,
		logger: zerolog.Ctx(ctx).With().Str("run_id", record.GetID().String()).Logger(),
		stages: map[string]string{},
	}

	status := rundao.RunStatusInProgress
	if err := dao.UpdateStatus(ctx, rundao.UpdateInput{
		PK:     record.PK,
		SK:     sk,
		Status: &status,
	}); err != nil {
		return nil, err
	}

	return recorder, nil
}

// ID returns the run record's ID.
func (r *Recorder) ID() rundao.ID {
	return rundao.NewID(r.pk, r.sk)
}

func (r *Recorder) StageStarted(ctx context.Context, stage string) {
	r.setStage(ctx, stage, string(pipeline.StatusRunning))
}

func (r *Recorder) StageFinished(ctx context.Context, stage string, status pipeline.Status, stageErr error) {
	r.setStage(ctx, stage, string(status))
}

func (r *Recorder) setStage(ctx context.Context, stage, status string) {
	r.mu.Lock()
	r.stages[stage] = status
	stages := make(map[string]string, len(r.stages))
	for k, v := range r.stages {
		stages[k] = v
	}
	r.mu.Unlock()

	runStatus := rundao.RunStatusInProgress
	if err := r.dao.UpdateStatus(ctx, rundao.UpdateInput{
		PK:     r.pk,
		SK:     r.sk,
		Status: &runStatus,
		Stages: stages,
	}); err != nil {
		r.logger.Warn().Err(err).Str("stage", stage).Msg("failed to record stage outcome")
	}
}

// Finish marks the run record with its terminal status.
func (r *Recorder) Finish(ctx context.Context, report pipeline.Report, errMsg *string) {
	status := rundao.RunStatusSuccess
	if report.Failed() {
		status = rundao.RunStatusFailed
	}

	r.mu.Lock()
	stages := make(map[string]string, len(r.stages))
	for _, stage := range report.Stages {
		stages[stage.Name] = string(stage.Status)
	}
	r.stages = stages
	r.mu.Unlock()

	if err := r.dao.UpdateStatus(ctx, rundao.UpdateInput{
		PK:       r.pk,
		SK:       r.sk,
		Status:   &status,
		Stages:   stages,
		ErrorMsg: errMsg,
	}); err != nil {
		r.logger.Warn().Err(err).Msg("failed to record run completion")
	}
}
