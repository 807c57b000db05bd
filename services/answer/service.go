package answer

import (
	"context"
	"strings"

	"github.com/at-fk/finalproject/models"
	"github.com/at-fk/finalproject/services"
	"github.com/at-fk/finalproject/services/contextbuilder"
	"github.com/at-fk/finalproject/services/providers"
	"github.com/at-fk/finalproject/services/search"
	"go.uber.org/zap"
)

// EventType tags the events of an answer stream
type EventType string

const (
	EventContext EventType = "context"
	EventContent EventType = "content"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is one step of an answer stream. Context carries the used context,
// content carries a fragment and error carries Err.
type Event struct {
	Type    EventType
	Content string
	Err     error
}

// Config holds the generation settings
type Config struct {
	Provider        string
	Model           string
	MaxTokens       int
	Temperature     float64
	DefaultLanguage models.Language
}

// DefaultConfig returns the generation settings used in production
func DefaultConfig() Config {
	return Config{
		Provider:        "openai",
		Model:           "gpt-4o",
		MaxTokens:       5000,
		Temperature:     0,
		DefaultLanguage: models.LanguageJapanese,
	}
}

// Service answers questions from selected or retrieved legal text
type Service struct {
	registry *providers.Registry
	searcher search.Searcher
	builder  *contextbuilder.Builder
	config   Config
	logger   *zap.Logger
}

// NewService creates a new answer service
func NewService(registry *providers.Registry, searcher search.Searcher, builder *contextbuilder.Builder, config Config, logger *zap.Logger) *Service {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultConfig().MaxTokens
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = models.LanguageJapanese
	}
	return &Service{
		registry: registry,
		searcher: searcher,
		builder:  builder,
		config:   config,
		logger:   logger,
	}
}

// AskSelected answers from the paragraphs the user selected.
// Errors returned here happen before any event is produced.
func (s *Service) AskSelected(ctx context.Context, req models.AskRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, services.ErrSearchQueryRequired
	}

	contextString, err := s.builder.FromSelected(req.SelectedContents)
	if err != nil {
		return nil, err
	}

	messages := []providers.Message{{Role: providers.RoleUser, Content: req.Query}}
	return s.stream(ctx, contextString, req.Query, messages, req.Language)
}

// AskSemantic retrieves paragraphs above the similarity threshold and answers from them.
// A previous question and answer, when complete, enrich the retrieval query and
// precede the question in the conversation.
func (s *Service) AskSemantic(ctx context.Context, req models.SemanticAskRequest) (<-chan Event, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, services.ErrSearchQueryRequired
	}

	hasHistory := req.LastQA != nil && req.LastQA.Question != "" && req.LastQA.Answer != ""

	retrievalQuery := req.Query
	if hasHistory {
		retrievalQuery = "Note: Previous conversation - Question: " + req.LastQA.Question +
			" Answer: " + req.LastQA.Answer + "\n\nCurrent Question: " + req.Query
	}

	resp, err := s.searcher.Search(ctx, models.SearchParams{
		Type:                models.SearchTypeSemantic,
		RegulationID:        req.SearchParams.RegulationID,
		SemanticQuery:       retrievalQuery,
		SearchLevel:         models.SearchLevelParagraph,
		SimilarityThreshold: req.SearchParams.SimilarityThreshold,
		MaxContexts:         req.SearchParams.MaxContexts,
	})
	if err != nil {
		return nil, err
	}

	contextString, err := s.builder.FromSemanticResults(resp.Results, req.SearchParams.MaxContexts)
	if err != nil {
		return nil, err
	}

	messages := make([]providers.Message, 0, 3)
	if hasHistory {
		messages = append(messages,
			providers.Message{Role: providers.RoleUser, Content: req.LastQA.Question},
			providers.Message{Role: providers.RoleAssistant, Content: req.LastQA.Answer},
		)
	}
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: req.Query})

	return s.stream(ctx, contextString, req.Query, messages, req.Language)
}

// provider resolves the configured provider by name, then by model
func (s *Service) provider() (providers.Provider, error) {
	if s.registry == nil {
		return nil, services.ErrProviderUnavailable
	}
	if s.config.Provider != "" {
		if p, err := s.registry.GetProvider(s.config.Provider); err == nil {
			return p, nil
		}
	}
	p, err := s.registry.GetProviderForModel(s.config.Model)
	if err != nil {
		return nil, services.ErrProviderUnavailable
	}
	return p, nil
}

// stream emits the context event, then one content event per fragment, then done.
// A provider failure ends the stream with an error event instead of done.
// Once ctx is cancelled nothing more is sent and the channel is closed.
func (s *Service) stream(ctx context.Context, contextString, query string, messages []providers.Message, language models.Language) (<-chan Event, error) {
	provider, err := s.provider()
	if err != nil {
		return nil, err
	}

	if language == "" {
		language = s.config.DefaultLanguage
	}

	req := &providers.ChatRequest{
		Model:       s.config.Model,
		System:      SystemPrompt(language, contextString, query),
		Messages:    messages,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	events := make(chan Event)
	go func() {
		defer close(events)

		if !send(ctx, events, Event{Type: EventContext, Content: contextString}) {
			return
		}

		fragments := 0
		err := provider.ChatCompletionStream(ctx, req, func(chunk *providers.StreamChunk) error {
			if chunk.Content == "" {
				return nil
			}
			if !send(ctx, events, Event{Type: EventContent, Content: chunk.Content}) {
				return ctx.Err()
			}
			fragments++
			return nil
		})

		if ctx.Err() != nil {
			s.logger.Debug("answer stream cancelled",
				zap.String("provider", provider.Name()),
				zap.Int("fragments", fragments),
			)
			return
		}
		if err != nil {
			s.logger.Error("answer generation failed",
				zap.String("provider", provider.Name()),
				zap.String("model", req.Model),
				zap.Bool("retryable", providers.IsRetryable(err)),
				zap.Error(err),
			)
			send(ctx, events, Event{Type: EventError, Err: services.WrapExternal("Failed to generate answer", err)})
			return
		}

		s.logger.Info("answer generated",
			zap.String("provider", provider.Name()),
			zap.String("language", string(language)),
			zap.Int("fragments", fragments),
			zap.Int("context_length", len(contextString)),
		)
		send(ctx, events, Event{Type: EventDone})
	}()

	return events, nil
}

func send(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
