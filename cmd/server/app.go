package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ganot/forgeline/internal/blob"
	"github.com/ganot/forgeline/internal/config"
	"github.com/ganot/forgeline/internal/domain/activity"
	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/domain/project"
	"github.com/ganot/forgeline/internal/domain/run"
	"github.com/ganot/forgeline/internal/events"
	"github.com/ganot/forgeline/internal/ingest"
	"github.com/ganot/forgeline/internal/llm"
	"github.com/ganot/forgeline/internal/llm/providers"
	"github.com/ganot/forgeline/internal/lock"
	"github.com/ganot/forgeline/internal/mcp"
	"github.com/ganot/forgeline/internal/orchestrator"
	"github.com/ganot/forgeline/internal/pipeline"
	"github.com/ganot/forgeline/internal/render"
	"github.com/ganot/forgeline/internal/store"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
)

// app holds the wired components and the resources they own.
type app struct {
	orchestrator *orchestrator.Orchestrator
	mcp          *sdkmcp.Server
	bus          *events.Bus
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, db *store.DB, logger *slog.Logger) (*app, error) {
	a := &app{}

	blobs, err := blob.NewStore(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	gw, err := providers.NewGateway(cfg.LLM, llm.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to build llm gateway: %w", err)
	}

	stageProviders := make(map[artifact.Stage]string, len(cfg.LLM.Stages))
	for name, provider := range cfg.LLM.Stages {
		stage, err := artifact.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("llm.stages: %w", err)
		}
		stageProviders[stage] = provider
	}

	projectRepo := store.NewProjectRepository(db)
	activityRepo := store.NewActivityRepository(db)
	documents := store.NewDocumentRepository(db)
	sourceCodes := store.NewSourceCodeRepository(db)
	reviews := store.NewReviewRepository(db)
	estimates := store.NewEstimateRepository(db)
	reports := store.NewProgressReportRepository(db)
	proposals := store.NewProposalRepository(db)

	opts := pipeline.Options{
		Providers:       stageProviders,
		DefaultProvider: cfg.LLM.DefaultProvider,
		Retry: pipeline.RetryPolicy{
			Attempts:   cfg.Pipeline.Retry.Attempts,
			Backoff:    cfg.Pipeline.Retry.Backoff,
			MaxBackoff: cfg.Pipeline.Retry.MaxBackoff,
		},
		QualityConcurrency: cfg.Pipeline.QualityConcurrency,
		Blobs:              blobs,
		Logger:             logger,
	}
	if cfg.Pipeline.RenderPDF {
		opts.Renderer = render.NewPDF(render.Options{})
	}
	pipe := pipeline.New(pipeline.Stores{
		Projects:    projectRepo,
		Activity:    activityRepo,
		Documents:   documents,
		SourceCodes: sourceCodes,
		Reviews:     reviews,
		Estimates:   estimates,
		Reports:     reports,
		Proposals:   proposals,
	}, gw, opts)

	var locker lock.Locker
	if cfg.Pipeline.Serialize {
		if cfg.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			a.closers = append(a.closers, func() { _ = client.Close() })
			locker = lock.NewRedis(client, lock.RedisOptions{Logger: logger})
			logger.Info("stage lock enabled", "backend", "redis", "addr", cfg.Redis.Addr)
		} else {
			locker = lock.NewLocal()
			logger.Info("stage lock enabled", "backend", "local")
		}
	}

	a.bus = events.NewBus()
	var publisher events.Publisher = a.bus
	if cfg.MQ.URL != "" {
		amqp, err := events.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, amqp.Close)
		publisher = events.NewMulti(logger).Add("bus", a.bus).Add("amqp", amqp)
		logger.Info("event publishing enabled", "exchange", cfg.MQ.Exchange)
	}

	a.orchestrator = orchestrator.New(orchestrator.Deps{
		Pipeline:    pipe,
		Projects:    project.NewService(projectRepo, logger),
		Activity:    activity.NewService(activityRepo, logger),
		Runs:        run.NewService(store.NewRunRepository(db), logger),
		Ingest:      ingest.NewService(projectRepo, documents, blobs, logger),
		Documents:   documents,
		SourceCodes: sourceCodes,
		Reviews:     reviews,
		Estimates:   estimates,
		Reports:     reports,
		Proposals:   proposals,
		Blobs:       blobs,
		Locker:      locker,
		Events:      publisher,
		Logger:      logger,
	})

	a.mcp = mcp.NewServer(mcp.Config{
		Projects: a.orchestrator,
		Stages:   a.orchestrator,
		Version:  Version,
		Logger:   logger,
	})
	return a, nil
}
