package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/kb-assistant/config"
	"github.com/upb/kb-assistant/internal/observability"
	"github.com/upb/kb-assistant/services/fetch"
	"github.com/upb/kb-assistant/services/inference"
	"github.com/upb/kb-assistant/services/knowledge"
	"github.com/upb/kb-assistant/services/providers"
	"github.com/upb/kb-assistant/services/providers/openai"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Metrics is never nil. MetricsRegistry is nil when metrics are disabled.
	Metrics         observability.Metrics
	MetricsRegistry *prometheus.Registry

	// Knowledge base
	Store   *knowledge.Store
	Fetcher *fetch.Fetcher

	// Generation
	ProviderRegistry *providers.Registry
	Orchestrator     *inference.Orchestrator

	// Services
	Knowledge *knowledge.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics(cfg)

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initKnowledge(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initMetrics creates a dedicated Prometheus registry with runtime collectors
func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		d.Logger.Info("metrics disabled")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.MetricsRegistry = reg
	d.Metrics = observability.NewPrometheusMetrics(reg)
}

// initProviders initializes the provider registry and the answer orchestrator
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	oa := cfg.Providers.OpenAI
	pcfg := providers.DefaultProviderConfig()
	pcfg.APIKey = oa.APIKey
	pcfg.BaseURL = oa.BaseURL
	pcfg.Timeout = oa.Timeout
	pcfg.MaxRetries = oa.MaxRetries

	var models []string
	adapter := openai.NewOpenAIAdapter(pcfg, openai.Options{UseResponsesAPI: oa.UseResponsesAPI})
	if adapter.ValidateModel(oa.Model) != nil {
		// Accept any configured model name, the API is the judge
		models = append(adapter.ListModels(), oa.Model)
		adapter = openai.NewOpenAIAdapter(pcfg, openai.Options{UseResponsesAPI: oa.UseResponsesAPI, Models: models})
	}

	if err := registry.RegisterProvider(adapter); err != nil {
		return err
	}
	if oa.APIKey == "" {
		d.Logger.Warn("OPENAI_API_KEY not set, chat requests will fail")
	}
	d.Logger.Info("registered OpenAI provider",
		zap.String("model", oa.Model),
		zap.Bool("responses_api", oa.UseResponsesAPI))

	d.Logger.Info("provider registry ready",
		zap.Strings("providers", registry.ListProviders()))

	d.ProviderRegistry = registry
	d.Orchestrator = inference.NewOrchestrator(registry, inference.Options{
		Model:   oa.Model,
		Metrics: d.Metrics,
	}, d.Logger.Named("inference"))
	return nil
}

// initKnowledge wires the store, fetcher and knowledge service
func (d *Dependencies) initKnowledge(cfg *config.Config) {
	d.Store = knowledge.NewStore(knowledge.StoreOptions{
		DefaultInstructions: cfg.Knowledge.DefaultInstructions,
		DefaultSource:       cfg.Knowledge.DefaultSource,
	})

	d.Fetcher = fetch.NewFetcher(fetch.Config{
		Timeout:           cfg.Fetch.Timeout,
		MaxBytes:          cfg.Fetch.MaxBytes,
		UserAgent:         cfg.Fetch.UserAgent,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
	}, d.Metrics, d.Logger.Named("fetch"))

	d.Knowledge = knowledge.NewService(d.Store, d.Fetcher, d.Orchestrator, knowledge.ServiceConfig{
		MaxContextChars: cfg.Knowledge.MaxContextChars,
		ChatTimeout:     cfg.Knowledge.ChatTimeout,
	}, d.Metrics, d.Logger.Named("knowledge"))
}

// CheckProvider reports whether the configured model has a registered
// provider with credentials that is reachable.
func (d *Dependencies) CheckProvider(ctx context.Context) error {
	if d.ProviderRegistry == nil || d.ProviderRegistry.GetProviderCount() == 0 {
		return errors.New("no generation provider registered")
	}
	if d.Config.Providers.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY not configured")
	}

	provider, err := d.ProviderRegistry.GetProviderForModel(d.Config.Providers.OpenAI.Model)
	if err != nil {
		return fmt.Errorf("model %s: %w", d.Config.Providers.OpenAI.Model, err)
	}
	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("provider %s is not reachable", provider.Name())
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	if d.Logger == nil {
		return nil
	}
	if d.Store != nil {
		d.Logger.Info("shutting down dependencies",
			zap.Int("bots", d.Store.TenantCount()))
	}

	// Sync logger
	_ = d.Logger.Sync()

	return nil
}
