package inference

import (
	"context"
	"strings"
	"time"

	"github.com/upb/kb-assistant/internal/observability"
	"github.com/upb/kb-assistant/services"
	"github.com/upb/kb-assistant/services/providers"
	"go.uber.org/zap"
)

// ProviderResolver picks the provider serving a model.
type ProviderResolver interface {
	GetProviderForModel(model string) (providers.Provider, error)
}

// Options configures an Orchestrator.
type Options struct {
	Model   string
	Rules   string
	Metrics observability.Metrics
}

// Orchestrator composes the grounded prompt, calls the generation provider
// once and extracts the reply.
type Orchestrator struct {
	resolver ProviderResolver
	model    string
	rules    string
	metrics  observability.Metrics
	logger   *zap.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(resolver ProviderResolver, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.Rules == "" {
		opts.Rules = DefaultRules
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NopMetrics{}
	}
	return &Orchestrator{
		resolver: resolver,
		model:    opts.Model,
		rules:    opts.Rules,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// BuildMessages returns the three-message prompt: tenant instructions, the
// grounding rules followed by the context block, then the user's question.
func (o *Orchestrator) BuildMessages(req AnswerRequest) []providers.Message {
	return []providers.Message{
		{Role: providers.RoleSystem, Content: req.Instructions},
		{Role: providers.RoleSystem, Content: o.rules + "\n" + req.Context},
		{Role: providers.RoleUser, Content: req.Question},
	}
}

// Answer runs a single generation. Provider failures are returned as
// GenerationError and are not retried here.
func (o *Orchestrator) Answer(ctx context.Context, req AnswerRequest) (*Answer, error) {
	provider, err := o.resolver.GetProviderForModel(o.model)
	if err != nil {
		o.logger.Error("no provider for model", zap.String("model", o.model), zap.Error(err))
		return nil, services.NewGenerationError(err)
	}

	start := time.Now()
	resp, err := provider.ChatCompletion(ctx, &providers.ChatRequest{
		Model:          o.model,
		Messages:       o.BuildMessages(req),
		ConversationID: req.ConversationID,
	})
	latency := time.Since(start)

	if err != nil {
		o.metrics.RecordGeneration(provider.Name(), observability.StatusGenerationError, latency)
		o.logger.Error("generation failed",
			zap.String("provider", provider.Name()),
			zap.String("model", o.model),
			zap.Duration("latency", latency),
			zap.Bool("retryable", providers.IsRetryable(err)),
			zap.Error(err))
		return nil, services.NewGenerationError(err)
	}
	o.metrics.RecordGeneration(provider.Name(), observability.StatusOK, latency)

	reply, ok := ExtractText(resp)
	if !ok {
		o.logger.Warn("provider response had no text",
			zap.String("provider", provider.Name()),
			zap.String("response_id", resp.ID))
		reply = NoResponse
	}

	answer := &Answer{
		Reply:          reply,
		ConversationID: resolveHandle(resp.ConversationID, req.ConversationID),
		Provider:       provider.Name(),
		Model:          resp.Model,
		Malformed:      !ok,
		Usage:          resp.Usage,
		Latency:        latency,
	}

	o.logger.Debug("generation completed",
		zap.String("provider", answer.Provider),
		zap.Duration("latency", latency),
		zap.Int("tokens", resp.Usage.TotalTokens))

	return answer, nil
}

// ExtractText prefers the flattened output text, then the first non-empty
// nested content text.
func ExtractText(resp *providers.ChatResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	if strings.TrimSpace(resp.OutputText) != "" {
		return resp.OutputText, true
	}
	for _, item := range resp.Output {
		for _, part := range item.Content {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, true
			}
		}
	}
	return "", false
}

func resolveHandle(fromProvider, fromCaller string) *string {
	switch {
	case fromProvider != "":
		return &fromProvider
	case fromCaller != "":
		return &fromCaller
	default:
		return nil
	}
}
