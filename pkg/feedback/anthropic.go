package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// Anthropic completes feedback through the Messages API.
type Anthropic struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

func NewAnthropic(apiKey string, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &Anthropic{
		apiKey: apiKey,
		url:    anthropicURL,
		model:  model,
		client: http.DefaultClient,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// newAnthropicRequest lifts system messages into the top-level system
// field and merges consecutive turns of the same role, which the API
// rejects.
func newAnthropicRequest(model string, messages []Message) anthropicRequest {
	req := anthropicRequest{
		Model:       model,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}

	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		role := "user"
		if m.Role == "assistant" {
			role = "assistant"
		}
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content += "\n\n" + m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")
	return req
}

func (l *Anthropic) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(newAnthropicRequest(l.model, messages))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("anthropic error (status %d): %s %s",
			resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	var result anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content returned from anthropic (stop reason %q)", result.StopReason)
	}
	return text.String(), nil
}

func (l *Anthropic) Name() string {
	return "anthropic"
}
