package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

// Coach turns final voice metrics into written feedback through an LLM.
type Coach struct {
	provider Provider
	logger   analyzer.Logger
}

// NewCoach creates a coach. A nil logger is replaced with a no-op logger.
func NewCoach(provider Provider, logger analyzer.Logger) *Coach {
	if logger == nil {
		logger = &analyzer.NoOpLogger{}
	}
	return &Coach{provider: provider, logger: logger}
}

// Enabled reports whether a provider is configured
func (c *Coach) Enabled() bool {
	return c != nil && c.provider != nil
}

// Generate asks the provider for feedback on req.
func (c *Coach) Generate(ctx context.Context, req Request) (Feedback, error) {
	if !c.Enabled() {
		return Feedback{}, ErrNoProvider
	}

	text, err := c.provider.Complete(ctx, BuildPrompt(req))
	if err != nil {
		c.logger.Error("feedback generation failed", "provider", c.provider.Name(), "error", err)
		return Feedback{}, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.logger.Warn("empty feedback received", "provider", c.provider.Name())
		return Feedback{}, ErrEmptyFeedback
	}

	c.logger.Info("feedback generated", "provider", c.provider.Name(), "length", len(text))
	return Feedback{
		Text:     text,
		Provider: c.provider.Name(),
		Metrics:  req.Metrics,
	}, nil
}
