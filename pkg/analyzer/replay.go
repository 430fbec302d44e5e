package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/lokutor-ai/delivery-coach/pkg/audio"
)

// Replay analyses a recorded signal as if it were captured live. The signal
// is pushed through the sampler one tick's worth of samples at a time and
// every frame is stamped on a simulated clock advancing by cfg.TickInterval.
// onPublish, when set, receives a snapshot every cfg.PublishEvery ticks.
func Replay(ctx context.Context, cfg Config, samples []float32, onPublish func(VoiceMetrics)) (VoiceMetrics, error) {
	if err := cfg.Validate(); err != nil {
		return VoiceMetrics{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	stream := audio.NewPCMStream()
	sampler, err := OpenAnalyser(stream, cfg)
	if err != nil {
		return VoiceMetrics{}, err
	}
	defer sampler.Close()

	perTick := int(float64(cfg.SampleRate) * cfg.TickInterval.Seconds())
	if perTick < 1 {
		perTick = 1
	}

	var now time.Time
	session := NewSession(cfg, now)
	for off := 0; off < len(samples); off += perTick {
		if err := ctx.Err(); err != nil {
			return session.Snapshot(), err
		}

		end := min(off+perTick, len(samples))
		if err := stream.WriteSamples(samples[off:end]); err != nil {
			return session.Snapshot(), err
		}
		now = now.Add(cfg.TickInterval)

		vol, err := sampler.Volume()
		if err != nil {
			return session.Snapshot(), fmt.Errorf("read volume: %w", err)
		}
		f := Frame{Volume: vol, Time: now}
		if session.WantsPitch(vol) {
			if f.Waveform, err = sampler.Waveform(); err != nil {
				return session.Snapshot(), fmt.Errorf("read waveform: %w", err)
			}
		}
		session.Observe(f)

		if onPublish != nil && session.Ticks()%cfg.PublishEvery == 0 {
			onPublish(session.Snapshot())
		}
	}
	return session.Snapshot(), nil
}
