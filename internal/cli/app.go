package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/okarpov/claimlens/internal/cascade"
	"github.com/okarpov/claimlens/internal/events"
	"github.com/okarpov/claimlens/internal/evidence"
	"github.com/okarpov/claimlens/internal/extract"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/pipeline"
	"github.com/okarpov/claimlens/internal/stats"
	"github.com/okarpov/claimlens/internal/store"
	"github.com/okarpov/claimlens/internal/validate"
	"github.com/okarpov/claimlens/internal/verdict"
	"github.com/okarpov/claimlens/internal/worker"
)

// loadConfig builds the effective configuration: defaults, overlaid by the
// config file viper located, with API keys injected from the environment.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// API keys come from the environment, never from the file
	for i := range cfg.Providers.Available {
		pc := &cfg.Providers.Available[i]
		switch pc.Name {
		case "openai":
			if key := os.Getenv("OPENAI_API_KEY"); key != "" {
				pc.APIKey = key
			}
		case "anthropic":
			if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
				pc.APIKey = key
			}
		case "gemini":
			if key := os.Getenv("GEMINI_API_KEY"); key != "" {
				pc.APIKey = key
			}
		case "ollama":
			if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
				pc.BaseURL = base
			}
		}
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		cfg.Search.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Verbose mode uses the development
// encoder at debug level.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zapCfg.Build()
}

// app bundles the wired engine and everything that needs closing
type app struct {
	engine    *pipeline.Engine
	store     store.Store
	registry  *prometheus.Registry
	collector *stats.Collector
	log       *zap.Logger
}

// buildApp wires the full verification stack from configuration. withStore
// controls whether runs are persisted; one-shot analyze skips the store.
func buildApp(ctx context.Context, cfg *model.Config, sink events.Sink, withStore bool) (*app, error) {
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := stats.NewCollector(registry)

	limiter := worker.NewProviderLimiter(10, time.Minute)
	for _, pc := range cfg.Providers.Available {
		limiter.SetProviderRate(pc.Name, pc.RateCap, pc.RateWin)
	}

	if sink == nil {
		sink = events.NopSink{}
	}
	if verbose {
		sink = events.Multi{sink, events.NewLogSink(log)}
	}

	exec := cascade.New(limiter, collector, sink, cfg.Retry.MaxRetries, cfg.Retry.BackoffBase)

	extractionProviders, err := llm.BuildCascade(ctx, cfg.Providers.ExtractionOrder, cfg)
	if err != nil {
		return nil, fmt.Errorf("build extraction cascade: %w", err)
	}
	verdictProviders, err := llm.BuildCascade(ctx, cfg.Providers.VerdictOrder, cfg)
	if err != nil {
		return nil, fmt.Errorf("build verdict cascade: %w", err)
	}

	hostLimiter := worker.NewHostLimiter(cfg.Knowledge.HostRPS, 3)
	knowledge := evidence.NewKnowledgeClient(cfg.Knowledge, cfg.HTTP, hostLimiter, log)
	search := evidence.NewSearchClient(cfg.Search, cfg.HTTP, hostLimiter, log)
	enricher := evidence.NewPageEnricher(cfg.HTTP, hostLimiter, log)
	gatherer := evidence.NewGatherer(knowledge, search, enricher, cfg.Knowledge.MaxEntities, cfg.Search.EnrichTop, log)

	var runStore store.Store
	if withStore {
		badgerStore, err := store.OpenBadger(cfg.Store, log)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		runStore = badgerStore
	}

	engine := pipeline.NewEngine(pipeline.Options{
		Splitter:            extract.NewClaimSplitter(exec, extractionProviders, cfg.Pipeline.MaxClaims, log),
		Analyzer:            extract.NewAnalyzer(exec, extractionProviders, log),
		Gatherer:            gatherer,
		Judge:               verdict.NewEngine(exec, verdictProviders, log),
		Citations:           validate.NewCitationChecker(cfg.Search.Timeout, 10, cfg.HTTP),
		Store:               runStore,
		Sink:                sink,
		Collector:           collector,
		Logger:              log,
		MaxConcurrentClaims: cfg.Pipeline.MaxConcurrentClaims,
		MinInputChars:       cfg.Pipeline.MinInputChars,
	})

	return &app{
		engine:    engine,
		store:     runStore,
		registry:  registry,
		collector: collector,
		log:       log,
	}, nil
}

// close releases app resources
func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.log.Sync()
}
