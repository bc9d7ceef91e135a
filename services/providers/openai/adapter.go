package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upb/kb-assistant/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Options selects the OpenAI endpoint flavour used by the adapter.
type Options struct {
	// UseResponsesAPI sends requests to /responses and threads conversations
	// through previous_response_id. When false, /chat/completions is used and
	// no conversation handle is returned.
	UseResponsesAPI bool

	// Models overrides the accepted model list
	Models []string
}

// OpenAIAdapter implements the Provider interface for OpenAI
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	opts       Options
	httpClient *http.Client
	models     map[string]struct{}
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig, opts Options) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	models := opts.Models
	if len(models) == 0 {
		models = []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1", "gpt-4.1-mini", "gpt-4-turbo", "gpt-3.5-turbo"}
	}

	adapter := &OpenAIAdapter{
		config: config,
		opts:   opts,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		models: make(map[string]struct{}, len(models)),
	}
	for _, m := range models {
		adapter.models[m] = struct{}{}
	}

	return adapter
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// ChatCompletion performs a generation request against the configured endpoint
func (a *OpenAIAdapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	if req.Model == "" {
		withModel := *req
		withModel.Model = defaultModel
		req = &withModel
	}
	if err := a.ValidateModel(req.Model); err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_MODEL", err.Error(), 400, false, err)
	}

	var (
		path    string
		payload interface{}
	)
	if a.opts.UseResponsesAPI {
		path, payload = "/responses", a.buildResponsesRequest(req)
	} else {
		path, payload = "/chat/completions", a.buildChatRequest(req)
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	statusCode, respBody, err := a.do(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, a.handleErrorResponse(statusCode, respBody)
	}

	var resp *providers.ChatResponse
	if a.opts.UseResponsesAPI {
		var parsed ResponsesResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", statusCode, false, err)
		}
		resp = a.convertResponses(&parsed)
	} else {
		var parsed ChatCompletionResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", statusCode, false, err)
		}
		resp = a.convertChatCompletion(&parsed)
	}

	resp.Provider = a.Name()
	resp.Latency = time.Since(startTime)
	return resp, nil
}

// do executes the request, retrying transport failures and 5xx responses
// up to MaxRetries times. The request is rebuilt for every attempt.
func (a *OpenAIAdapter) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, nil, providers.NewProviderError(a.Name(), "CANCELLED", "Request cancelled", 0, false, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return 0, nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
		}
		a.setHeaders(httpReq)

		httpResp, err := a.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return 0, nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
		}

		if httpResp.StatusCode >= 500 && attempt < a.config.MaxRetries {
			lastErr = fmt.Errorf("HTTP %d", httpResp.StatusCode)
			continue
		}
		return httpResp.StatusCode, respBody, nil
	}

	return 0, nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
}

func (a *OpenAIAdapter) setHeaders(httpReq *http.Request) {
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if a.config.OrgID != "" {
		httpReq.Header.Set("OpenAI-Organization", a.config.OrgID)
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
}

// IsAvailable checks if the provider is currently available
func (a *OpenAIAdapter) IsAvailable(ctx context.Context) bool {
	if a.config.APIKey == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// ValidateModel checks if a model is supported
func (a *OpenAIAdapter) ValidateModel(model string) error {
	if _, exists := a.models[model]; !exists {
		return fmt.Errorf("model %s is not supported by OpenAI provider", model)
	}
	return nil
}

// ListModels returns all available models
func (a *OpenAIAdapter) ListModels() []string {
	models := make([]string, 0, len(a.models))
	for model := range a.models {
		models = append(models, model)
	}
	return models
}

func (a *OpenAIAdapter) buildResponsesRequest(req *providers.ChatRequest) *ResponsesRequest {
	out := &ResponsesRequest{
		Model: req.Model,
		Input: make([]OpenAIMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		out.Input[i] = OpenAIMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.ConversationID != "" {
		out.PreviousResponseID = &req.ConversationID
	}
	if req.MaxTokens > 0 {
		out.MaxOutputTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		out.Temperature = &req.Temperature
	}
	if req.User != "" {
		out.User = &req.User
	}
	return out
}

func (a *OpenAIAdapter) buildChatRequest(req *providers.ChatRequest) *ChatCompletionRequest {
	temperature := req.Temperature
	out := &ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]OpenAIMessage, len(req.Messages)),
		Temperature: &temperature,
	}
	for i, msg := range req.Messages {
		out.Messages[i] = OpenAIMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = &req.MaxTokens
	}
	if req.User != "" {
		out.User = &req.User
	}
	return out
}

// convertResponses keeps both output shapes; extraction is the caller's job.
func (a *OpenAIAdapter) convertResponses(r *ResponsesResponse) *providers.ChatResponse {
	resp := &providers.ChatResponse{
		ID:             r.ID,
		ConversationID: r.ID,
		Model:          r.Model,
		OutputText:     r.OutputText,
		Output:         make([]providers.OutputItem, len(r.Output)),
		Usage: providers.Usage{
			PromptTokens:     r.Usage.InputTokens,
			CompletionTokens: r.Usage.OutputTokens,
			TotalTokens:      r.Usage.TotalTokens,
		},
	}
	for i, item := range r.Output {
		parts := make([]providers.ContentPart, len(item.Content))
		for j, c := range item.Content {
			parts[j] = providers.ContentPart{Type: c.Type, Text: c.Text}
		}
		resp.Output[i] = providers.OutputItem{Type: item.Type, Role: item.Role, Content: parts}
	}
	return resp
}

// convertChatCompletion maps choices onto nested output items. Chat
// completions carry no continuation handle.
func (a *OpenAIAdapter) convertChatCompletion(r *ChatCompletionResponse) *providers.ChatResponse {
	resp := &providers.ChatResponse{
		ID:     r.ID,
		Model:  r.Model,
		Output: make([]providers.OutputItem, len(r.Choices)),
		Usage: providers.Usage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		},
	}
	for i, choice := range r.Choices {
		resp.Output[i] = providers.OutputItem{
			Type: "message",
			Role: choice.Message.Role,
			Content: []providers.ContentPart{
				{Type: "output_text", Text: choice.Message.Content},
			},
		}
	}
	return resp
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, retryable, err)
	}

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// OpenAI-specific request/response types

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponsesRequest struct {
	Model              string          `json:"model"`
	Input              []OpenAIMessage `json:"input"`
	PreviousResponseID *string         `json:"previous_response_id,omitempty"`
	MaxOutputTokens    *int            `json:"max_output_tokens,omitempty"`
	Temperature        *float64        `json:"temperature,omitempty"`
	User               *string         `json:"user,omitempty"`
}

type ResponsesResponse struct {
	ID         string            `json:"id"`
	Object     string            `json:"object"`
	Model      string            `json:"model"`
	OutputText string            `json:"output_text"`
	Output     []ResponsesOutput `json:"output"`
	Usage      ResponsesUsage    `json:"usage"`
}

type ResponsesOutput struct {
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []ResponsesContent `json:"content"`
}

type ResponsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ResponsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	User        *string         `json:"user,omitempty"`
}

type ChatCompletionResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
