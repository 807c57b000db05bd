package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/at-fk/finalproject/services/providers"
)

func TestNewOpenAIAdapter(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "test-key"})

	if adapter == nil {
		t.Fatal("NewOpenAIAdapter() returned nil")
	}
	if adapter.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", adapter.Name())
	}
	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}
	if adapter.httpClient.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", adapter.httpClient.Timeout)
	}
	if len(adapter.models) == 0 {
		t.Error("Models not initialized")
	}
}

func TestOpenAIAdapter_ValidateModel(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{})

	tests := []struct {
		name        string
		model       string
		expectError bool
	}{
		{name: "gpt-4o", model: "gpt-4o"},
		{name: "gpt-4o-mini", model: "gpt-4o-mini"},
		{name: "invalid model", model: "invalid-model", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := adapter.ValidateModel(tt.model)

			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestOpenAIAdapter_ConfiguredModels(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{Models: []string{"custom-model"}})

	models := adapter.ListModels()
	if len(models) != 1 || models[0] != "custom-model" {
		t.Errorf("ListModels() = %v, want [custom-model]", models)
	}
	if err := adapter.ValidateModel("gpt-4o"); err == nil {
		t.Error("gpt-4o should not be accepted when models are overridden")
	}
}

func sseServer(t *testing.T, check func(r *http.Request, req OpenAIChatRequest), events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req OpenAIChatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		if check != nil {
			check(r, req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			flusher.Flush()
		}
	}))
}

func deltaEvent(content, finish string) string {
	chunk := OpenAIStreamChunk{
		ID:      "chatcmpl-test",
		Model:   "gpt-4o",
		Choices: []OpenAIStreamChoice{{Delta: OpenAIDelta{Content: content}, FinishReason: finish}},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

func TestOpenAIAdapter_ChatCompletionStream(t *testing.T) {
	server := sseServer(t, func(r *http.Request, req OpenAIChatRequest) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Authorization header missing or invalid")
		}
		if r.Header.Get("OpenAI-Organization") != "org-1" {
			t.Error("Organization header missing")
		}
		if !req.Stream {
			t.Error("stream flag not set")
		}
		if req.Temperature != 0 {
			t.Errorf("Temperature = %v, want 0", req.Temperature)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 5000 {
			t.Errorf("MaxTokens = %v, want 5000", req.MaxTokens)
		}
		if len(req.Messages) != 4 {
			t.Errorf("len(Messages) = %d, want 4", len(req.Messages))
			return
		}
		if req.Messages[0].Role != "system" || req.Messages[0].Content != "be precise" {
			t.Errorf("first message = %+v, want system prompt", req.Messages[0])
		}
		if req.Messages[3].Role != "user" || req.Messages[3].Content != "and now?" {
			t.Errorf("last message = %+v", req.Messages[3])
		}
	},
		`{"id":"chatcmpl-test","choices":[{"index":0,"delta":{"role":"assistant","content":""}}]}`,
		deltaEvent("Article 6 ", ""),
		deltaEvent("applies.", ""),
		deltaEvent("", "stop"),
		"[DONE]",
	)
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		OrgID:   "org-1",
		Timeout: 5 * time.Second,
	})

	var content strings.Builder
	var finish string
	err := adapter.ChatCompletionStream(context.Background(), &providers.ChatRequest{
		Model:  "gpt-4o",
		System: "be precise",
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "what applies?"},
			{Role: providers.RoleAssistant, Content: "it depends"},
			{Role: providers.RoleUser, Content: "and now?"},
		},
		MaxTokens:   5000,
		Temperature: 0,
	}, func(chunk *providers.StreamChunk) error {
		content.WriteString(chunk.Content)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		return nil
	})

	if err != nil {
		t.Fatalf("ChatCompletionStream() error = %v", err)
	}
	if content.String() != "Article 6 applies." {
		t.Errorf("content = %q, want %q", content.String(), "Article 6 applies.")
	}
	if finish != "stop" {
		t.Errorf("finish reason = %q, want stop", finish)
	}
}

func TestOpenAIAdapter_ChatCompletionStream_CallbackError(t *testing.T) {
	server := sseServer(t, nil, deltaEvent("one", ""), deltaEvent("two", ""), "[DONE]")
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL})
	stop := errors.New("client disconnected")

	calls := 0
	err := adapter.ChatCompletionStream(context.Background(), &providers.ChatRequest{Model: "gpt-4o"}, func(chunk *providers.StreamChunk) error {
		calls++
		return stop
	})

	if !errors.Is(err, stop) {
		t.Errorf("error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestOpenAIAdapter_ChatCompletionStream_MalformedChunk(t *testing.T) {
	server := sseServer(t, nil, deltaEvent("ok", ""), "{not json")
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL})
	err := adapter.ChatCompletionStream(context.Background(), &providers.ChatRequest{Model: "gpt-4o"}, func(*providers.StreamChunk) error { return nil })

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != "UNMARSHAL_ERROR" {
		t.Errorf("Code = %s, want UNMARSHAL_ERROR", provErr.Code)
	}
}

func TestOpenAIAdapter_ChatCompletionStream_Error(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "rate limited", status: http.StatusTooManyRequests, wantRetryable: true},
		{name: "server error", status: http.StatusInternalServerError, wantRetryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(OpenAIErrorResponse{
					Error: OpenAIError{Message: "Invalid request", Type: "invalid_request_error", Code: "invalid_api_key"},
				})
			}))
			defer server.Close()

			adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "invalid-key", BaseURL: server.URL})
			err := adapter.ChatCompletionStream(context.Background(), &providers.ChatRequest{
				Model:    "gpt-4o",
				Messages: []providers.Message{{Role: "user", Content: "test"}},
			}, func(*providers.StreamChunk) error { return nil })

			var provErr *providers.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("Expected ProviderError, got %T", err)
			}
			if provErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", provErr.StatusCode, tt.status)
			}
			if provErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", provErr.Retryable, tt.wantRetryable)
			}
			if provErr.Message != "Invalid request" {
				t.Errorf("Message = %s, want Invalid request", provErr.Message)
			}
			if attempts != 1 {
				t.Errorf("attempts = %d, streaming requests must not be retried", attempts)
			}
		})
	}
}

func TestOpenAIAdapter_ChatCompletionStream_InvalidModel(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{})

	err := adapter.ChatCompletionStream(context.Background(), &providers.ChatRequest{Model: "nope"}, func(*providers.StreamChunk) error { return nil })

	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) || provErr.Code != "INVALID_MODEL" {
		t.Errorf("error = %v, want INVALID_MODEL", err)
	}
}

func TestOpenAIAdapter_ChatCompletionStream_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", deltaEvent("first", ""))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	err := adapter.ChatCompletionStream(ctx, &providers.ChatRequest{Model: "gpt-4o"}, func(chunk *providers.StreamChunk) error {
		got = append(got, chunk.Content)
		cancel()
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(got) != 1 {
		t.Errorf("received %d chunks after cancel, want 1", len(got))
	}
}

func TestOpenAIAdapter_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" && r.Header.Get("Authorization") == "Bearer good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if !NewOpenAIAdapter(providers.ProviderConfig{APIKey: "good", BaseURL: server.URL}).IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true")
	}
	if NewOpenAIAdapter(providers.ProviderConfig{APIKey: "bad", BaseURL: server.URL}).IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false")
	}
}
