package handlers

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/upb/kb-assistant/middleware"
	"github.com/upb/kb-assistant/services/knowledge"
	"github.com/upb/kb-assistant/utils"
	"go.uber.org/zap"
)

// SetInstructionsRequest is the body of POST /kb/set-instructions
type SetInstructionsRequest struct {
	BotID        string `json:"botId" validate:"required,notblank,max=128"`
	Instructions string `json:"instructions" validate:"required,notblank"`
}

// AddTextRequest is the body of POST /kb/add-text
type AddTextRequest struct {
	BotID  string `json:"botId" validate:"required,notblank,max=128"`
	Text   string `json:"text" validate:"required,notblank"`
	Source string `json:"source,omitempty" validate:"max=2048"`
}

// AddURLRequest is the body of POST /kb/add-url
type AddURLRequest struct {
	BotID string `json:"botId" validate:"required,notblank,max=128"`
	URL   string `json:"url" validate:"required,http_url,max=2048"`
}

// OKResponse acknowledges a write
type OKResponse struct {
	OK    bool `json:"ok"`
	Count *int `json:"count,omitempty"`
}

// DocumentSummary describes a stored document without its text
type DocumentSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Chars     int       `json:"chars"`
	CreatedAt time.Time `json:"createdAt"`
}

// BotResponse is the body of GET /kb/{botId}
type BotResponse struct {
	BotID        string            `json:"botId"`
	Instructions string            `json:"instructions"`
	Count        int               `json:"count"`
	Documents    []DocumentSummary `json:"documents"`
}

// KnowledgeService defines the knowledge base write and read operations
type KnowledgeService interface {
	SetInstructions(ctx context.Context, botID, instructions string) error
	AddText(ctx context.Context, botID, text, source string) (int, error)
	AddURL(ctx context.Context, botID, url string) (int, error)
	GetBot(ctx context.Context, botID string) (*knowledge.Bot, error)
}

// KnowledgeHandler handles knowledge base HTTP requests
type KnowledgeHandler struct {
	service KnowledgeService
	logger  *zap.Logger
}

// NewKnowledgeHandler creates a new KnowledgeHandler
func NewKnowledgeHandler(service KnowledgeService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSetInstructions handles POST /kb/set-instructions
func (h *KnowledgeHandler) HandleSetInstructions(w http.ResponseWriter, r *http.Request) {
	var req SetInstructionsRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SetInstructions(r.Context(), req.BotID, req.Instructions); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.write(w, r, http.StatusOK, OKResponse{OK: true})
}

// HandleAddText handles POST /kb/add-text
func (h *KnowledgeHandler) HandleAddText(w http.ResponseWriter, r *http.Request) {
	var req AddTextRequest
	if !h.decode(w, r, &req) {
		return
	}

	count, err := h.service.AddText(r.Context(), req.BotID, req.Text, req.Source)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.write(w, r, http.StatusOK, OKResponse{OK: true, Count: &count})
}

// HandleAddURL handles POST /kb/add-url
func (h *KnowledgeHandler) HandleAddURL(w http.ResponseWriter, r *http.Request) {
	var req AddURLRequest
	if !h.decode(w, r, &req) {
		return
	}

	count, err := h.service.AddURL(r.Context(), req.BotID, req.URL)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.write(w, r, http.StatusOK, OKResponse{OK: true, Count: &count})
}

// HandleGetBot handles GET /kb/{botId}
func (h *KnowledgeHandler) HandleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, err := h.service.GetBot(r.Context(), chi.URLParam(r, "botId"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	docs := make([]DocumentSummary, 0, len(bot.Documents))
	for _, d := range bot.Documents {
		docs = append(docs, DocumentSummary{
			ID:        d.ID,
			Source:    d.Source,
			Chars:     utf8.RuneCountInString(d.Text),
			CreatedAt: d.CreatedAt,
		})
	}

	h.write(w, r, http.StatusOK, BotResponse{
		BotID:        bot.BotID,
		Instructions: bot.Instructions,
		Count:        len(docs),
		Documents:    docs,
	})
}

// decode parses and validates the body, writing the error response itself
// when it returns false.
func (h *KnowledgeHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeAndValidate(w, r, v, h.logger)
}

func (h *KnowledgeHandler) write(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	if err := utils.WriteJSON(w, status, v); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, v); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleDecodeError(w, err, logger)
		return false
	}

	if err := utils.ValidateStruct(v); err != nil {
		logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}
