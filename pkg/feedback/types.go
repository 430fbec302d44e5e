package feedback

import (
	"context"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generation limits shared by every provider. Feedback is a short paragraph.
const (
	MaxTokens   = 400
	Temperature = 0.7
)

// Provider completes a chat conversation
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// Tone selects the coaching voice of the generated feedback
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneDirect      Tone = "direct"
	ToneFormal      Tone = "formal"
)

// Request is everything the coach knows about one practice attempt
type Request struct {
	Metrics analyzer.VoiceMetrics

	// PromptText is the passage or question the speaker practised, if any
	PromptText string

	Tone Tone
}

type Feedback struct {
	Text     string                `json:"text"`
	Provider string                `json:"provider"`
	Metrics  analyzer.VoiceMetrics `json:"metrics"`
}
