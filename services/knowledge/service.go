package knowledge

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/upb/kb-assistant/internal/observability"
	"github.com/upb/kb-assistant/internal/rag"
	"github.com/upb/kb-assistant/services"
	"github.com/upb/kb-assistant/services/inference"
	"go.uber.org/zap"
)

// Fetcher retrieves the readable text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Answerer produces a grounded reply.
type Answerer interface {
	Answer(ctx context.Context, req inference.AnswerRequest) (*inference.Answer, error)
}

// ServiceConfig tunes the chat pipeline.
type ServiceConfig struct {
	MaxContextChars int
	ChatTimeout     time.Duration
}

// ChatResult is the outcome of a chat exchange.
type ChatResult struct {
	Reply          string
	ConversationID *string
}

// Bot is a read-only view of one bot.
type Bot struct {
	BotID        string
	Instructions string
	Documents    []rag.Document
}

// Service implements the knowledge base operations exposed over HTTP.
type Service struct {
	store     *Store
	fetcher   Fetcher
	answerer  Answerer
	retriever rag.Retriever
	timeout   time.Duration
	metrics   observability.Metrics
	logger    *zap.Logger
}

// NewService creates a new knowledge service.
func NewService(store *Store, fetcher Fetcher, answerer Answerer, cfg ServiceConfig, metrics observability.Metrics, logger *zap.Logger) *Service {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = rag.DefaultMaxContextChars
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Service{
		store:     store,
		fetcher:   fetcher,
		answerer:  answerer,
		retriever: rag.BudgetRetriever{MaxChars: cfg.MaxContextChars},
		timeout:   cfg.ChatTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// SetInstructions replaces a bot's instructions.
func (s *Service) SetInstructions(ctx context.Context, botID, instructions string) error {
	if err := s.store.SetInstructions(botID, instructions); err != nil {
		return err
	}
	s.logger.Info("instructions updated", zap.String("bot_id", botID))
	return nil
}

// AddText appends a document and returns the bot's new document count.
// An empty source gets the store's default label.
func (s *Service) AddText(ctx context.Context, botID, text, source string) (int, error) {
	kind := observability.SourceKindCustom
	if source == "" {
		kind = observability.SourceKindManual
	}
	return s.addDocument(botID, text, source, kind)
}

func (s *Service) addDocument(botID, text, source, kind string) (int, error) {
	count, err := s.store.AddDocument(botID, text, source)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordDocumentAdded(kind)
	s.logger.Info("document added",
		zap.String("bot_id", botID),
		zap.String("source", source),
		zap.Int("count", count))
	return count, nil
}

// AddURL fetches url and stores its text with the URL as source. Nothing is
// stored when the fetch fails.
func (s *Service) AddURL(ctx context.Context, botID, url string) (int, error) {
	url = strings.TrimSpace(url)
	if botID == "" || url == "" {
		return 0, services.NewValidationError("botId and url are required", missing(botID, "botId", url, "url")...)
	}

	text, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, services.NewFetchError(url, err)
	}

	return s.addDocument(botID, text, url, observability.SourceKindURL)
}

// Chat answers message from the bot's documents.
func (s *Service) Chat(ctx context.Context, botID, message, conversationID string) (*ChatResult, error) {
	if botID == "" || strings.TrimSpace(message) == "" {
		s.metrics.RecordChat(observability.StatusValidationError)
		return nil, services.NewValidationError("botId and message are required", missing(botID, "botId", strings.TrimSpace(message), "message")...)
	}

	instructions, docs := s.store.GetTenant(botID)

	selected := s.retriever.Retrieve(docs, message)
	s.metrics.RecordSelection(len(selected), contextChars(selected))

	s.logger.Debug("context selected",
		zap.String("bot_id", botID),
		zap.Int("documents", len(docs)),
		zap.Int("selected", len(selected)))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.answerer.Answer(ctx, inference.AnswerRequest{
		Instructions:   instructions,
		Context:        rag.FormatContext(selected),
		Question:       message,
		ConversationID: conversationID,
	})
	if err != nil {
		s.metrics.RecordChat(observability.StatusGenerationError)
		if services.GetErrorType(err) == "" {
			return nil, services.WrapInternal("chat failed", err)
		}
		return nil, err
	}
	if answer == nil {
		s.metrics.RecordChat(observability.StatusGenerationError)
		return nil, services.WrapInternal("answerer returned no answer", nil)
	}

	status := observability.StatusOK
	if answer.Malformed {
		status = observability.StatusMalformed
	}
	s.metrics.RecordChat(status)

	return &ChatResult{
		Reply:          answer.Reply,
		ConversationID: answer.ConversationID,
	}, nil
}

// GetBot returns the bot's instructions and documents, creating the bot
// with defaults if it is unknown.
func (s *Service) GetBot(ctx context.Context, botID string) (*Bot, error) {
	if botID == "" {
		return nil, services.NewValidationError("botId is required", "botId")
	}
	instructions, docs := s.store.GetTenant(botID)
	return &Bot{BotID: botID, Instructions: instructions, Documents: docs}, nil
}

func contextChars(docs []rag.Document) int {
	n := 0
	for _, d := range docs {
		n += utf8.RuneCountInString(d.Text)
	}
	return n
}
