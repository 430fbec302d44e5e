package feedback

import (
	"fmt"
	"strings"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

const systemPrompt = `You are a public speaking coach. You receive measurements of one spoken practice attempt and reply with short, concrete feedback for the speaker.
Rules:
- Mention at most three things, strongest issue first.
- Tie every point to a measurement, but never read numbers back verbatim.
- End with one exercise the speaker can try next time.
- Plain prose, no lists or markdown, under 120 words.`

var toneGuidance = map[Tone]string{
	ToneEncouraging: "Be warm and encouraging; open with something the speaker did well.",
	ToneDirect:      "Be direct and brief; skip praise unless it is earned.",
	ToneFormal:      "Use a formal, professional register.",
}

// BuildPrompt renders the request as a system and user message pair.
func BuildPrompt(req Request) []Message {
	system := systemPrompt
	tone := req.Tone
	if _, ok := toneGuidance[tone]; !ok {
		tone = ToneEncouraging
	}
	system += "\n" + toneGuidance[tone]

	var b strings.Builder
	if text := strings.TrimSpace(req.PromptText); text != "" {
		fmt.Fprintf(&b, "The speaker practised this prompt:\n%q\n\n", text)
	}
	b.WriteString("Measurements:\n")
	writeMetrics(&b, req.Metrics)

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: b.String()},
	}
}

func writeMetrics(b *strings.Builder, m analyzer.VoiceMetrics) {
	total := m.SpeakingTimeMs + m.SilenceTimeMs
	fmt.Fprintf(b, "- duration: %.1fs, speaking %.0f%% of the time\n", float64(total)/1000, m.SpeakingRatio*100)
	fmt.Fprintf(b, "- volume: average %.0f/100, stability %.0f/100\n", m.AverageVolume, m.VolumeStability)
	fmt.Fprintf(b, "- sudden volume drops: %d, sentences trailing off: %d\n", m.VolumeDropCount, m.TrailingOffCount)
	if m.AveragePitch > 0 {
		fmt.Fprintf(b, "- pitch: average %.0f Hz, range %.0f Hz, stability %.0f/100\n", m.AveragePitch, m.PitchRange, m.PitchStability)
	} else {
		b.WriteString("- pitch: not enough voiced audio to measure\n")
	}
	fmt.Fprintf(b, "- pauses: %d total, %d well placed (0.3-1.5s), %d long (>2s), average %.0f ms\n",
		m.PauseCount, m.StrategicPauseCount, m.LongPauseCount, m.AveragePauseDurationMs)
	fmt.Fprintf(b, "- scores: confidence %d, pace %d, overall delivery %d (out of 100)\n",
		m.ConfidenceScore, m.PaceScore, m.DeliveryScore)
}
