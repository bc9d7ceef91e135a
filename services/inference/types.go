package inference

import (
	"time"

	"github.com/upb/kb-assistant/services/providers"
)

// NoResponse is returned as the reply when the provider answered but no text
// could be extracted from its response.
const NoResponse = "(no response)"

// DefaultRules is the grounding preamble placed before the context block.
const DefaultRules = `RULES:
- Answer ONLY from the company data below.
- If the answer is not in the data, reply: "I don't know, this information is not available."
- Keep answers short and factual.

COMPANY DATA:`

// AnswerRequest carries everything needed for one generation call.
type AnswerRequest struct {
	Instructions   string
	Context        string
	Question       string
	ConversationID string
}

// Answer is the orchestrator's result. ConversationID is nil when neither the
// provider nor the caller supplied a handle.
type Answer struct {
	Reply          string
	ConversationID *string
	Provider       string
	Model          string
	Malformed      bool
	Usage          providers.Usage
	Latency        time.Duration
}
