package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/at-fk/finalproject/services/providers"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultRegion    = "us-east-1"
	defaultMaxTokens = 4096
)

var defaultModels = []string{
	"anthropic.claude-3-5-sonnet-20240620-v1:0",
	"anthropic.claude-3-5-haiku-20241022-v1:0",
	"anthropic.claude-3-haiku-20240307-v1:0",
}

// EventStream is the part of the Bedrock response stream the adapter reads
type EventStream interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// InvokeFunc opens a response stream for a marshalled Claude request
type InvokeFunc func(ctx context.Context, modelID string, body []byte) (EventStream, error)

// BedrockAdapter streams Claude completions through Amazon Bedrock
type BedrockAdapter struct {
	invoke InvokeFunc
	models map[string]struct{}
}

// NewBedrockAdapter loads the default AWS credential chain for the configured region
func NewBedrockAdapter(ctx context.Context, cfg providers.ProviderConfig) (*BedrockAdapter, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)
	invoke := func(ctx context.Context, modelID string, body []byte) (EventStream, error) {
		output, err := client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
			ModelId:     aws.String(modelID),
			Body:        body,
			Accept:      aws.String("application/json"),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, err
		}
		return output.GetStream(), nil
	}

	return NewBedrockAdapterWithInvoker(invoke, cfg.Models), nil
}

// NewBedrockAdapterWithInvoker builds an adapter around an existing stream opener
func NewBedrockAdapterWithInvoker(invoke InvokeFunc, models []string) *BedrockAdapter {
	if len(models) == 0 {
		models = defaultModels
	}
	adapter := &BedrockAdapter{
		invoke: invoke,
		models: make(map[string]struct{}, len(models)),
	}
	for _, m := range models {
		adapter.models[m] = struct{}{}
	}
	return adapter
}

// Name returns the provider name
func (a *BedrockAdapter) Name() string {
	return "bedrock"
}

// Claude messages API request format (what Bedrock expects)
type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}

func buildPayload(req *providers.ChatRequest) claudeMessageRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		System:           req.System,
		Messages:         make([]claudeMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		// Claude takes the system prompt out of band
		if msg.Role == providers.RoleSystem {
			if payload.System == "" {
				payload.System = msg.Content
			}
			continue
		}
		payload.Messages = append(payload.Messages, claudeMessage{Role: msg.Role, Content: msg.Content})
	}
	return payload
}

// ChatCompletionStream invokes the model with a response stream and forwards text deltas
func (a *BedrockAdapter) ChatCompletionStream(ctx context.Context, req *providers.ChatRequest, callback providers.StreamCallback) error {
	if err := a.ValidateModel(req.Model); err != nil {
		return providers.NewProviderError(a.Name(), "INVALID_MODEL", err.Error(), 400, false, err)
	}

	body, err := json.Marshal(buildPayload(req))
	if err != nil {
		return providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	stream, err := a.invoke(ctx, req.Model, body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return providers.NewProviderError(a.Name(), "INVOKE_ERROR", "Failed to invoke model stream", 0, true, err)
	}
	defer stream.Close()

	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				if err := stream.Err(); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return providers.NewProviderError(a.Name(), "STREAM_ERROR", "Stream failed", 0, false, err)
				}
				return nil
			}

			chunk, isChunk := event.(*types.ResponseStreamMemberChunk)
			if !isChunk {
				continue
			}
			if err := handleChunk(chunk.Value.Bytes, callback); err != nil {
				return err
			}
		}
	}
}

// handleChunk forwards text deltas and the stop reason; unparseable chunks are skipped
func handleChunk(data []byte, callback providers.StreamCallback) error {
	var event claudeStreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil
	}

	switch event.Type {
	case "content_block_delta":
		if event.Delta.Text == "" {
			return nil
		}
		return callback(&providers.StreamChunk{Content: event.Delta.Text})
	case "message_delta":
		if event.Delta.StopReason == "" {
			return nil
		}
		return callback(&providers.StreamChunk{FinishReason: event.Delta.StopReason})
	}
	return nil
}

// IsAvailable reports whether a stream opener is configured
func (a *BedrockAdapter) IsAvailable(ctx context.Context) bool {
	return a.invoke != nil
}

// ValidateModel checks if a model is supported
func (a *BedrockAdapter) ValidateModel(model string) error {
	if _, exists := a.models[model]; !exists {
		return fmt.Errorf("model %s is not supported by Bedrock provider", model)
	}
	return nil
}

// ListModels returns all available models
func (a *BedrockAdapter) ListModels() []string {
	models := make([]string, 0, len(a.models))
	for model := range a.models {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
