package handlers

import (
	"context"
	"net/http"

	"github.com/upb/kb-assistant/middleware"
	"github.com/upb/kb-assistant/services/knowledge"
	"github.com/upb/kb-assistant/utils"
	"go.uber.org/zap"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	BotID          string `json:"botId" validate:"required,notblank,max=128"`
	Message        string `json:"message" validate:"required,notblank"`
	ConversationID string `json:"conversationId,omitempty" validate:"max=256"`
}

// ChatResponse is the body returned by POST /chat. ConversationID encodes
// as null when there is no handle.
type ChatResponse struct {
	Reply          string  `json:"reply"`
	ConversationID *string `json:"conversationId"`
}

// ChatService defines the interface for answering chat messages
type ChatService interface {
	Chat(ctx context.Context, botID, message, conversationID string) (*knowledge.ChatResult, error)
}

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req ChatRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	h.logger.Debug("processing chat",
		zap.String("request_id", requestID),
		zap.String("bot_id", req.BotID),
		zap.Bool("continued", req.ConversationID != ""))

	result, err := h.service.Chat(ctx, req.BotID, req.Message, req.ConversationID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, ChatResponse{
		Reply:          result.Reply,
		ConversationID: result.ConversationID,
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
