package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"queryscope/internal/accept"
	"queryscope/internal/cluster"
	"queryscope/internal/gateway/config"
	"queryscope/internal/gateway/handler"
	"queryscope/internal/gateway/repository/auditstore"
	"queryscope/internal/gateway/repository/groupstore"
	"queryscope/internal/gateway/repository/querystore"
	"queryscope/internal/gateway/server"
	"queryscope/internal/llm"
	"queryscope/internal/suggestion"
)

type App struct {
	server  *server.Server
	llmClnt llm.Client
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Stores
	queries := querystore.NewFromEnv(cfg.DatabaseDSN)
	groups := groupstore.NewFromEnv(cfg.DatabaseDSN)
	audit := auditstore.NewFromEnv(cfg.DatabaseDSN)

	if cfg.Audit.Enabled {
		archive, err := auditstore.NewArchive(auditstore.ArchiveConfig{
			Endpoint:  cfg.Audit.Endpoint,
			Region:    cfg.Audit.Region,
			AccessKey: cfg.Audit.AccessKey,
			SecretKey: cfg.Audit.SecretKey,
			Bucket:    cfg.Audit.Bucket,
			UseSSL:    cfg.Audit.UseSSL,
		})
		if err != nil {
			log.Printf("audit archive disabled: %v", err)
		} else {
			audit.SetArchive(archive)
			log.Printf("audit archive: bucket=%s endpoint=%s", cfg.Audit.Bucket, cfg.Audit.Endpoint)
		}
	}

	// Completion client
	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	log.Printf("llm client: %s", client.Name())

	generator := cluster.NewGenerator(client, queries, audit)
	generator.SetLimits(cfg.Cluster.BatchSize, cfg.Cluster.CandidateLimit)

	orchestrator := accept.NewOrchestrator(groups, queries, audit)
	suggestions := suggestion.NewStore()

	hub := handler.NewGenerationHub()
	generator.OnProgress = hub.Publish

	svc := handler.NewService(queries, groups, audit, suggestions, generator, orchestrator, hub)

	mux := server.NewMux(svc, hub)
	srv := server.New(cfg.Port, mux)

	return &App{server: srv, llmClnt: client}, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	var base llm.Client
	switch cfg.Provider {
	case "groq":
		base = llm.NewGroqClient(cfg.APIKey, cfg.Model)
	case "fake":
		base = llm.NewFakeClient()
	default:
		cli, err := llm.NewGeminiClient(ctx, cfg.Model)
		if err != nil {
			return nil, err
		}
		base = cli
	}

	var mws []llm.Middleware
	if cfg.Retries > 1 {
		mws = append(mws, llm.Retry(cfg.Retries, time.Second))
	}
	if cfg.RPS > 0 {
		mws = append(mws, llm.RateLimit(cfg.RPS, cfg.Burst))
	}
	if cfg.Timeout > 0 {
		mws = append(mws, llm.Timeout(cfg.Timeout))
	}
	return llm.Wrap(base, mws...), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.llmClnt != nil {
		_ = a.llmClnt.Close()
	}
	return a.server.Shutdown(ctx)
}
