package knowledge

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kb-assistant/internal/rag"
	"github.com/upb/kb-assistant/services"
)

const (
	// DefaultInstructions seeds every newly created bot.
	DefaultInstructions = "You are the company's assistant. Answer ONLY from the data below. " +
		"If the information does not exist, say: \"I don't know.\""

	// DefaultSource labels documents added without an explicit source.
	DefaultSource = "manual"
)

// tenant holds one bot's instructions and documents. mu guards both fields.
type tenant struct {
	mu           sync.RWMutex
	instructions string
	docs         []rag.Document
}

// StoreOptions configures defaults applied to new bots and documents.
type StoreOptions struct {
	DefaultInstructions string
	DefaultSource       string
	Now                 func() time.Time
}

// Store is an in-memory, concurrency-safe registry of bots and their
// documents. Documents are append-only and never move between bots.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenant

	defaultInstructions string
	defaultSource       string
	now                 func() time.Time
}

// NewStore creates an empty Store. Zero-valued options fall back to
// DefaultInstructions, DefaultSource and time.Now.
func NewStore(opts StoreOptions) *Store {
	s := &Store{
		tenants:             make(map[string]*tenant),
		defaultInstructions: opts.DefaultInstructions,
		defaultSource:       opts.DefaultSource,
		now:                 opts.Now,
	}
	if s.defaultInstructions == "" {
		s.defaultInstructions = DefaultInstructions
	}
	if s.defaultSource == "" {
		s.defaultSource = DefaultSource
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// EnsureTenant creates the bot with default instructions and no documents
// if it does not exist yet. Calling it again is a no-op.
func (s *Store) EnsureTenant(botID string) {
	s.ensure(botID)
}

func (s *Store) ensure(botID string) *tenant {
	s.mu.RLock()
	t, ok := s.tenants[botID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[botID]; ok {
		return t
	}
	t = &tenant{instructions: s.defaultInstructions}
	s.tenants[botID] = t
	return t
}

// SetInstructions replaces the bot's instructions with the trimmed text.
func (s *Store) SetInstructions(botID, text string) error {
	text = strings.TrimSpace(text)
	if botID == "" || text == "" {
		return services.NewValidationError("botId and instructions are required", missing(botID, "botId", text, "instructions")...)
	}

	t := s.ensure(botID)
	t.mu.Lock()
	t.instructions = text
	t.mu.Unlock()
	return nil
}

// AddDocument normalizes text and appends it to the bot's documents,
// returning the new document count. Text that normalizes to nothing is
// rejected like missing text. An empty source is replaced by the store's
// default label.
func (s *Store) AddDocument(botID, text, source string) (int, error) {
	text = rag.Normalize(text)
	if botID == "" || text == "" {
		return 0, services.NewValidationError("botId and text are required", missing(botID, "botId", text, "text")...)
	}
	if source == "" {
		source = s.defaultSource
	}

	doc := rag.Document{
		ID:        uuid.NewString(),
		Text:      text,
		Source:    source,
		CreatedAt: s.now(),
	}

	t := s.ensure(botID)
	t.mu.Lock()
	t.docs = append(t.docs, doc)
	count := len(t.docs)
	t.mu.Unlock()
	return count, nil
}

// GetTenant returns the bot's current instructions and a copy of its
// documents in insertion order, creating the bot if needed.
func (s *Store) GetTenant(botID string) (string, []rag.Document) {
	t := s.ensure(botID)
	t.mu.RLock()
	defer t.mu.RUnlock()

	docs := make([]rag.Document, len(t.docs))
	copy(docs, t.docs)
	return t.instructions, docs
}

// Count returns the number of documents stored for the bot.
func (s *Store) Count(botID string) int {
	t := s.ensure(botID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.docs)
}

// TenantCount returns the number of known bots.
func (s *Store) TenantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants)
}

// missing lists the names of empty values given as value/name pairs.
func missing(pairs ...string) []string {
	var fields []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == "" {
			fields = append(fields, pairs[i+1])
		}
	}
	return fields
}
