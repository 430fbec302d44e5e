package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lokutor-ai/delivery-coach/internal/logger"
	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/feedback"
)

const feedbackTimeout = 30 * time.Second

// FeedbackFlags are shared by the commands that end with a final report
type FeedbackFlags struct {
	Feedback bool   `help:"Ask the configured FEEDBACK_PROVIDER for written coaching"`
	Prompt   string `help:"Text or question being practised, shown to the feedback model"`
	Tone     string `help:"Coaching tone" enum:"encouraging,direct,formal" default:"encouraging"`
}

func (a *app) coach() *feedback.Coach {
	var p feedback.Provider
	switch a.cfg.FeedbackProvider {
	case "openai":
		p = feedback.NewOpenAI(a.cfg.OpenAIAPIKey, a.cfg.FeedbackModel)
	case "groq":
		p = feedback.NewGroq(a.cfg.GroqAPIKey, a.cfg.FeedbackModel)
	case "anthropic":
		p = feedback.NewAnthropic(a.cfg.AnthropicAPIKey, a.cfg.FeedbackModel)
	case "google":
		p = feedback.NewGoogle(a.cfg.GoogleAPIKey, a.cfg.FeedbackModel)
	}
	return feedback.NewCoach(p, logger.NewAdapter(a.log))
}

func (a *app) writeFeedback(w io.Writer, f FeedbackFlags, final analyzer.VoiceMetrics) error {
	if !f.Feedback {
		return nil
	}
	coach := a.coach()
	if !coach.Enabled() {
		return fmt.Errorf("--feedback: %w (set FEEDBACK_PROVIDER)", feedback.ErrNoProvider)
	}

	ctx, cancel := context.WithTimeout(context.Background(), feedbackTimeout)
	defer cancel()

	fb, err := coach.Generate(ctx, feedback.Request{
		Metrics:    final,
		PromptText: f.Prompt,
		Tone:       feedback.Tone(f.Tone),
	})
	if errors.Is(err, feedback.ErrEmptyFeedback) {
		fmt.Fprintln(w, "\nNo feedback returned.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFeedback (%s):\n%s\n", fb.Provider, fb.Text)
	return nil
}

func writeReport(w io.Writer, m analyzer.VoiceMetrics) {
	total := time.Duration(m.SpeakingTimeMs+m.SilenceTimeMs) * time.Millisecond
	fmt.Fprintf(w, "Take length:   %s (speaking %.0f%%)\n", total.Round(100*time.Millisecond), m.SpeakingRatio*100)
	fmt.Fprintf(w, "Volume:        avg %.0f, stability %.0f, %d drops, %d trailing off\n",
		m.AverageVolume, m.VolumeStability, m.VolumeDropCount, m.TrailingOffCount)
	if m.AveragePitch > 0 {
		fmt.Fprintf(w, "Pitch:         avg %.0f Hz, range %.0f Hz, stability %.0f\n",
			m.AveragePitch, m.PitchRange, m.PitchStability)
	} else {
		fmt.Fprintln(w, "Pitch:         not enough voiced audio")
	}
	fmt.Fprintf(w, "Pauses:        %d (%d strategic, %d long), avg %.0f ms\n",
		m.PauseCount, m.StrategicPauseCount, m.LongPauseCount, m.AveragePauseDurationMs)
	fmt.Fprintf(w, "Confidence:    %d\nPace:          %d\nDelivery:      %d\n",
		m.ConfidenceScore, m.PaceScore, m.DeliveryScore)
}

// meterLine renders a one-line live level meter
func meterLine(m analyzer.VoiceMetrics) string {
	bars := m.CurrentVolume * 40 / 100
	state := "silent  "
	if m.IsSpeaking {
		state = "speaking"
	}
	return fmt.Sprintf("\r\033[K[%-40s] %3d %s  confidence %3d  pace %3d  delivery %3d",
		strings.Repeat("|", bars), m.CurrentVolume, state, m.ConfidenceScore, m.PaceScore, m.DeliveryScore)
}
