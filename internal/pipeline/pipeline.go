// Package pipeline implements the artifact generation stages. Each stage
// fetches its inputs, builds a prompt, calls the gateway, validates the
// output (falling back to a deterministic placeholder on any provider or
// shape failure) and persists exactly one artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/prompt"
	"github.com/ganot/forgeline/internal/repository"
	"github.com/google/uuid"
)

// Generator is the gateway contract used by the stages.
type Generator interface {
	Generate(ctx context.Context, provider, system, user string) (string, error)
}

// ProposalRenderer turns a proposal into a PDF.
type ProposalRenderer interface {
	RenderProposal(title string, p artifact.Proposal) ([]byte, error)
}

// BlobStore stores rendered files.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Stores groups the repositories the stages read and write.
type Stores struct {
	Projects    project.Repository
	Activity    activity.Repository
	Documents   repository.DocumentRepository
	SourceCodes repository.SourceCodeRepository
	Reviews     repository.ReviewRepository
	Estimates   repository.EstimateRepository
	Reports     repository.ProgressReportRepository
	Proposals   repository.ProposalRepository
}

// RetryPolicy bounds stage retries of retryable gateway failures.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Options configures a Pipeline.
type Options struct {
	// Providers selects the provider per stage; stages not listed use DefaultProvider.
	Providers       map[artifact.Stage]string
	DefaultProvider string
	Retry           RetryPolicy
	// QualityConcurrency bounds concurrent per-item quality calls.
	QualityConcurrency int
	Renderer           ProposalRenderer
	Blobs              BlobStore
	Logger             *slog.Logger
	Now                func() time.Time
	NewID              func() string
}

// Pipeline runs stages against a store and a gateway.
type Pipeline struct {
	stores Stores
	gen    Generator
	opts   Options
	logger *slog.Logger
}

// New creates a Pipeline.
func New(stores Stores, gen Generator, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.QualityConcurrency <= 0 {
		opts.QualityConcurrency = 4
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry.Attempts = 1
	}
	return &Pipeline{stores: stores, gen: gen, opts: opts, logger: opts.Logger}
}

// ProviderFor returns the provider configured for stage.
func (p *Pipeline) ProviderFor(stage artifact.Stage) string {
	if name, ok := p.opts.Providers[stage]; ok && name != "" {
		return name
	}
	return p.opts.DefaultProvider
}

// generation is the outcome of a single-call stage's LLM step.
type generation[T any] struct {
	value    T
	fallback bool
}

// runLLM drives prompting, generating and validating for stages with a
// single gateway call. Any failure along the way yields the fallback value.
func runLLM[T any](ctx context.Context, p *Pipeline, tr *run.Tracker, stage artifact.Stage, in prompt.Input, parse func(string) (T, error), fallback func() T) generation[T] {
	p.advance(tr, run.StatePrompting)
	pr, buildErr := prompt.Build(stage, in)

	provider := p.ProviderFor(stage)
	tr.SetProvider(provider)
	p.advance(tr, run.StateGenerating)

	var (
		text string
		err  = buildErr
	)
	if buildErr == nil {
		text, err = p.call(ctx, stage, provider, pr)
	}

	p.advance(tr, run.StateValidating)
	if err != nil {
		p.warnFallback(stage, provider, err)
		return generation[T]{value: fallback(), fallback: true}
	}

	value, err := parse(text)
	if err != nil {
		p.warnFallback(stage, provider, err)
		return generation[T]{value: fallback(), fallback: true}
	}
	return generation[T]{value: value}
}

// call invokes the gateway, retrying unavailable and timeout failures per the retry policy.
func (p *Pipeline) call(ctx context.Context, stage artifact.Stage, provider string, pr prompt.Prompt) (string, error) {
	backoff := p.opts.Retry.Backoff
	var lastErr error
	for attempt := 1; attempt <= p.opts.Retry.Attempts; attempt++ {
		text, err := p.gen.Generate(ctx, provider, pr.System, pr.User)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !llm.Retryable(err) || attempt == p.opts.Retry.Attempts {
			break
		}

		if p.logger != nil {
			p.logger.Debug("retrying provider call", "stage", stage, "provider", provider, "attempt", attempt, "error", err)
		}
		select {
		case <-ctx.Done():
			return "", llm.Classify(provider, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if p.opts.Retry.MaxBackoff > 0 && backoff > p.opts.Retry.MaxBackoff {
			backoff = p.opts.Retry.MaxBackoff
		}
	}
	return "", lastErr
}

// begin moves a fresh run into fetching_inputs.
func (p *Pipeline) begin(tr *run.Tracker) {
	p.advance(tr, run.StateFetchingInputs)
}

// fetchFailed fails the run while fetching inputs. Not-found errors become
// precondition failures; anything else is a storage failure.
func (p *Pipeline) fetchFailed(tr *run.Tracker, what string, err error) error {
	var out error
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrPrecondition):
		out = fmt.Errorf("%w: %s", ErrPrecondition, what)
	case errors.Is(err, ErrMixedProjects), errors.Is(err, ErrUnknownTemplate), errors.Is(err, ErrInvalidPeriod):
		out = err
	default:
		out = fmt.Errorf("%w: loading %s: %v", ErrStorage, what, err)
	}
	_ = tr.Fail(out)
	return out
}

// persist runs save on a context detached from caller cancellation and
// finishes the run.
func (p *Pipeline) persist(ctx context.Context, tr *run.Tracker, artifactID string, isFallback bool, save func(context.Context) error) error {
	p.advance(tr, run.StatePersisting)
	if err := save(context.WithoutCancel(ctx)); err != nil {
		out := fmt.Errorf("%w: %v", ErrStorage, err)
		_ = tr.Fail(out)
		return out
	}
	tr.SetResult(artifactID, isFallback)
	p.advance(tr, run.StateDone)
	return nil
}

func (p *Pipeline) advance(tr *run.Tracker, next run.State) {
	if err := tr.Advance(next); err != nil && p.logger != nil {
		p.logger.Error("run state transition rejected", "error", err)
	}
}

func (p *Pipeline) warnFallback(stage artifact.Stage, provider string, cause error) {
	if p.logger == nil {
		return
	}
	p.logger.Warn("using fallback output", "stage", stage, "provider", provider, "error", cause)
}

func (p *Pipeline) project(ctx context.Context, id string) (*project.Project, error) {
	return p.stores.Projects.Get(ctx, id)
}
