// Package telemetry records analyzer lifecycle signals as OpenTelemetry
// metrics. A Recorder implements analyzer.Telemetry; tests build one over a
// ManualReader-backed provider to inspect what was recorded.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

// meterName is the instrumentation scope for all coach metrics.
const meterName = "github.com/lokutor-ai/delivery-coach"

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

var durationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

// Recorder holds the instruments. All fields are safe for concurrent use.
type Recorder struct {
	SessionsStarted metric.Int64Counter
	SessionsActive  metric.Int64UpDownCounter
	TicksSkipped    metric.Int64Counter
	ReleaseFailures metric.Int64Counter

	// SessionDuration is tracked speaking plus silence time, in seconds.
	SessionDuration metric.Float64Histogram

	DeliveryScore   metric.Int64Histogram
	ConfidenceScore metric.Int64Histogram
	PaceScore       metric.Int64Histogram

	// Pauses counts recorded pauses. Use with attribute kind: long,
	// strategic or other.
	Pauses metric.Int64Counter
}

var _ analyzer.Telemetry = (*Recorder)(nil)

// NewRecorder creates the instruments on mp's coach meter.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(meterName)
	var err error
	r := &Recorder{}

	if r.SessionsStarted, err = m.Int64Counter("coach.sessions.started",
		metric.WithDescription("Analysis sessions started."),
	); err != nil {
		return nil, err
	}
	if r.SessionsActive, err = m.Int64UpDownCounter("coach.sessions.active",
		metric.WithDescription("Analysis sessions currently running."),
	); err != nil {
		return nil, err
	}
	if r.TicksSkipped, err = m.Int64Counter("coach.ticks.skipped",
		metric.WithDescription("Sampling ticks skipped after a failed frame read."),
	); err != nil {
		return nil, err
	}
	if r.ReleaseFailures, err = m.Int64Counter("coach.release.failures",
		metric.WithDescription("Audio resources that failed to release on stop."),
	); err != nil {
		return nil, err
	}
	if r.SessionDuration, err = m.Float64Histogram("coach.session.duration",
		metric.WithDescription("Tracked time of finished sessions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if r.DeliveryScore, err = m.Int64Histogram("coach.delivery.score",
		metric.WithDescription("Final delivery score per session."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if r.ConfidenceScore, err = m.Int64Histogram("coach.confidence.score",
		metric.WithDescription("Final confidence score per session."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if r.PaceScore, err = m.Int64Histogram("coach.pace.score",
		metric.WithDescription("Final pace score per session."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if r.Pauses, err = m.Int64Counter("coach.pauses",
		metric.WithDescription("Pauses recorded, by kind."),
	); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Recorder) SessionStarted(ctx context.Context, _ string) {
	r.SessionsStarted.Add(ctx, 1)
	r.SessionsActive.Add(ctx, 1)
}

func (r *Recorder) TickSkipped(ctx context.Context, _ string) {
	r.TicksSkipped.Add(ctx, 1)
}

func (r *Recorder) SessionStopped(ctx context.Context, _ string, final analyzer.VoiceMetrics, elapsed time.Duration) {
	r.SessionsActive.Add(ctx, -1)
	r.SessionDuration.Record(ctx, elapsed.Seconds())
	r.DeliveryScore.Record(ctx, int64(final.DeliveryScore))
	r.ConfidenceScore.Record(ctx, int64(final.ConfidenceScore))
	r.PaceScore.Record(ctx, int64(final.PaceScore))

	// strategic and long ranges do not overlap
	other := final.PauseCount - final.LongPauseCount - final.StrategicPauseCount
	for kind, n := range map[string]int{
		"long":      final.LongPauseCount,
		"strategic": final.StrategicPauseCount,
		"other":     other,
	} {
		if n > 0 {
			r.Pauses.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
		}
	}
}

func (r *Recorder) ReleaseFailed(ctx context.Context, _ string) {
	r.ReleaseFailures.Add(ctx, 1)
}
