package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

var testMessages = []Message{
	{Role: "system", Content: "system instructions"},
	{Role: "user", Content: "hi"},
}

func TestAnthropic(t *testing.T) {
	prompt := BuildPrompt(Request{PromptText: "Tell me about yourself", Tone: ToneDirect})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.Model != "claude-3" || req.MaxTokens != MaxTokens || req.Temperature != Temperature {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.System != prompt[0].Content || len(req.Messages) != 1 || req.Messages[0].Content != prompt[1].Content {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Write([]byte(`{"content":[{"type":"text","text":"hello "},{"type":"tool_use"},{"type":"text","text":"from anthropic"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	l := NewAnthropic("test-key", "claude-3")
	l.url = server.URL

	resp, err := l.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp != "hello from anthropic" {
		t.Errorf("expected 'hello from anthropic', got '%s'", resp)
	}
}

func TestAnthropicRequest_MergesTurns(t *testing.T) {
	req := newAnthropicRequest("m", []Message{
		{Role: "system", Content: "a"},
		{Role: "user", Content: "one"},
		{Role: "user", Content: "two"},
		{Role: "assistant", Content: "reply"},
		{Role: "system", Content: "b"},
	})

	if req.System != "a\n\nb" {
		t.Errorf("expected joined system prompt, got %q", req.System)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 turns, got %d: %+v", len(req.Messages), req.Messages)
	}
	if req.Messages[0].Role != "user" || req.Messages[0].Content != "one\n\ntwo" {
		t.Errorf("unexpected first turn %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "assistant" {
		t.Errorf("unexpected second turn %+v", req.Messages[1])
	}
}

func TestAnthropic_NoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	}))
	defer server.Close()

	l := NewAnthropic("test-key", "")
	l.url = server.URL

	_, err := l.Complete(context.Background(), testMessages)
	if err == nil || !strings.Contains(err.Error(), "max_tokens") {
		t.Errorf("expected stop reason in error, got %v", err)
	}
}

func TestAnthropic_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	l := NewAnthropic("test-key", "")
	l.url = server.URL

	_, err := l.Complete(context.Background(), testMessages)
	if err == nil || !strings.Contains(err.Error(), "status 429") || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestGoogle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req struct {
			SystemInstruction *googleContent         `json:"systemInstruction"`
			Contents          []googleContent        `json:"contents"`
			GenerationConfig  googleGenerationConfig `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "system instructions" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.GenerationConfig.MaxOutputTokens != MaxTokens || req.GenerationConfig.Temperature != Temperature {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}]}}]}`))
	}))
	defer server.Close()

	l := NewGoogle("test-key", "gemini-test")
	l.url = server.URL

	resp, err := l.Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "hello from gemini" {
		t.Errorf("expected 'hello from gemini', got '%s'", resp)
	}
}

func TestChatProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != "test-model" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello from openai"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	p := NewChatProvider(cfg, "test-model", "openai")

	resp, err := p.Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "hello from openai" {
		t.Errorf("expected 'hello from openai', got '%s'", resp)
	}
}

func TestChatProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	p := NewChatProvider(cfg, "m", "groq")

	if _, err := p.Complete(context.Background(), testMessages); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestProviderNames(t *testing.T) {
	tests := []struct {
		p    Provider
		want string
	}{
		{NewOpenAI("k", ""), "openai"},
		{NewGroq("k", ""), "groq"},
		{NewAnthropic("k", ""), "anthropic"},
		{NewGoogle("k", ""), "google"},
	}
	for _, tt := range tests {
		if got := tt.p.Name(); got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, got)
		}
	}
}
