package feedback

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ChatProvider talks to any OpenAI-compatible chat completion API.
type ChatProvider struct {
	client *openai.Client
	model  string
	name   string
}

func NewOpenAI(apiKey, model string) *ChatProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return NewChatProvider(openai.DefaultConfig(apiKey), model, "openai")
}

func NewGroq(apiKey, model string) *ChatProvider {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = GroqBaseURL
	return NewChatProvider(cfg, model, "groq")
}

// NewChatProvider builds a provider from an explicit client config, e.g.
// to point at a self-hosted compatible server.
func NewChatProvider(cfg openai.ClientConfig, model, name string) *ChatProvider {
	return &ChatProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   name,
	}
}

func (p *ChatProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chat = append(chat, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    chat,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *ChatProvider) Name() string {
	return p.name
}
