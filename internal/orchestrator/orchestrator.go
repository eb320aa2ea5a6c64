// Package orchestrator is the entry point for every pipeline operation. It
// validates requests, serializes stage runs when configured, records runs
// and maps failures onto caller-visible error codes.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/events"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/lock"
	"github.com/ganot/forgeline/internal/metrics"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/google/uuid"
)

// BlobReader reads stored files.
type BlobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Deps are the collaborators of an Orchestrator. Locker and Events may be nil.
type Deps struct {
	Pipeline    *pipeline.Pipeline
	Projects    *project.Service
	Activity    *activity.Service
	Runs        *run.Service
	Ingest      *ingest.Service
	Documents   repository.DocumentRepository
	SourceCodes repository.SourceCodeRepository
	Reviews     repository.ReviewRepository
	Estimates   repository.EstimateRepository
	Reports     repository.ProgressReportRepository
	Proposals   repository.ProposalRepository
	Blobs       BlobReader
	Locker      lock.Locker
	Events      events.Publisher
	Logger      *slog.Logger
}

// Orchestrator runs pipeline operations.
type Orchestrator struct {
	d      Deps
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Orchestrator.
func New(d Deps) *Orchestrator {
	return &Orchestrator{d: d, logger: d.Logger, now: func() time.Time { return time.Now().UTC() }}
}

// Result is returned by every stage.
type Result struct {
	ArtifactID string `json:"artifact_id"`
	RunID      string `json:"run_id"`
	Summary    string `json:"summary"`
	IsFallback bool   `json:"is_fallback"`
}

// outcome is what a stage body reports back to execute.
type outcome struct {
	artifactID string
	summary    string
	isFallback bool
}

// execute wraps one stage invocation: lock, run tracking, event
// publication, metrics and run recording.
func (o *Orchestrator) execute(ctx context.Context, requestID, projectID, lockScope string, stage artifact.Stage, body func(context.Context, *run.Tracker) (outcome, error)) (*Result, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	} else if err := o.checkRequestID(ctx, requestID); err != nil {
		return nil, err
	}
	start := time.Now()

	if o.d.Locker != nil {
		release, err := o.d.Locker.Lock(ctx, lock.Key(lockScope, string(stage)))
		if err != nil {
			oe := &Error{Code: CodeStorageFailure, Message: "could not acquire stage lock", Err: err}
			metrics.RecordStage(string(stage), metricResult(oe, false), time.Since(start))
			return nil, oe
		}
		defer release()
	}

	tr := run.NewTracker(run.Run{ID: requestID, ProjectID: projectID, Stage: string(stage)}, o.publisher(ctx))
	out, err := body(ctx, tr)

	snap := tr.Snapshot()
	if snap.Terminal() && o.d.Runs != nil {
		if recErr := o.d.Runs.Record(context.WithoutCancel(ctx), snap); recErr != nil && o.logger != nil {
			o.logger.Error("failed to record run", "request_id", requestID, "stage", stage, "error", recErr)
		}
	}

	if err != nil {
		oe := mapStageError(err)
		metrics.RecordStage(string(stage), metricResult(oe, false), time.Since(start))
		if o.logger != nil {
			o.logger.Warn("stage failed", "request_id", requestID, "stage", stage, "code", oe.Code, "error", err)
		}
		return nil, oe
	}

	metrics.RecordStage(string(stage), metricResult(nil, out.isFallback), time.Since(start))
	if o.logger != nil {
		o.logger.Info("stage completed", "request_id", requestID, "stage", stage, "artifact_id", out.artifactID, "is_fallback", out.isFallback, "duration", time.Since(start))
	}
	return &Result{
		ArtifactID: out.artifactID,
		RunID:      requestID,
		Summary:    out.summary,
		IsFallback: out.isFallback,
	}, nil
}

// checkRequestID rejects a caller-supplied id that already names a recorded run.
func (o *Orchestrator) checkRequestID(ctx context.Context, requestID string) error {
	if o.d.Runs == nil {
		return nil
	}
	_, err := o.d.Runs.Get(ctx, requestID)
	switch {
	case err == nil:
		return &Error{Code: CodeConflict, Field: "request_id", Message: "run " + requestID + " already exists"}
	case errors.Is(err, run.ErrRunNotFound):
		return nil
	default:
		return &Error{Code: CodeStorageFailure, Message: "could not look up run", Err: err}
	}
}

func (o *Orchestrator) publisher(ctx context.Context) func(run.Run) {
	if o.d.Events == nil {
		return nil
	}
	detached := context.WithoutCancel(ctx)
	return func(r run.Run) {
		if err := o.d.Events.Publish(detached, events.FromRun(r)); err != nil && o.logger != nil {
			o.logger.Debug("run event not delivered", "request_id", r.ID, "state", r.State, "error", err)
		}
	}
}
