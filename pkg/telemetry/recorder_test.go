package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/audio"
)

// idleTicker never fires
type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func newTestRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	r, err := NewRecorder(mp)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q: expected Sum[int64], got %T", name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecorder_SessionLifecycle(t *testing.T) {
	r, reader := newTestRecorder(t)
	ctx := context.Background()

	r.SessionStarted(ctx, "a")
	r.SessionStarted(ctx, "b")
	r.TickSkipped(ctx, "a")
	r.TickSkipped(ctx, "a")
	r.TickSkipped(ctx, "b")
	r.ReleaseFailed(ctx, "a")
	r.SessionStopped(ctx, "a", analyzer.VoiceMetrics{
		DeliveryScore:   72,
		ConfidenceScore: 80,
		PaceScore:       65,
	}, 42*time.Second)

	rm := collect(t, reader)

	tests := []struct {
		name string
		want int64
	}{
		{"coach.sessions.started", 2},
		{"coach.sessions.active", 1},
		{"coach.ticks.skipped", 3},
		{"coach.release.failures", 1},
	}
	for _, tt := range tests {
		if got := sumValue(t, rm, tt.name); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}

	dur := findMetric(rm, "coach.session.duration")
	if dur == nil {
		t.Fatal("coach.session.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", dur.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 || hist.DataPoints[0].Sum != 42 {
		t.Errorf("unexpected duration histogram: %+v", hist.DataPoints)
	}

	for _, name := range []string{"coach.delivery.score", "coach.confidence.score", "coach.pace.score"} {
		m := findMetric(rm, name)
		if m == nil {
			t.Errorf("%s not found", name)
			continue
		}
		h, ok := m.Data.(metricdata.Histogram[int64])
		if !ok || len(h.DataPoints) != 1 || h.DataPoints[0].Count != 1 {
			t.Errorf("%s: expected one observation, got %+v", name, m.Data)
		}
	}
}

func TestRecorder_PausesByKind(t *testing.T) {
	r, reader := newTestRecorder(t)
	ctx := context.Background()

	r.SessionStarted(ctx, "a")
	r.SessionStopped(ctx, "a", analyzer.VoiceMetrics{
		PauseCount:          6,
		LongPauseCount:      1,
		StrategicPauseCount: 3,
	}, time.Minute)

	rm := collect(t, reader)
	m := findMetric(rm, "coach.pauses")
	if m == nil {
		t.Fatal("coach.pauses not found")
	}
	sum := m.Data.(metricdata.Sum[int64])

	want := map[string]int64{"long": 1, "strategic": 3, "other": 2}
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		got[kind.AsString()] = dp.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("kind %s: expected %d, got %d", k, v, got[k])
		}
	}
}

func TestRecorder_DrivenByController(t *testing.T) {
	r, reader := newTestRecorder(t)

	ctrl := analyzer.New(
		analyzer.WithTelemetry(r),
		analyzer.WithTicker(func(time.Duration) analyzer.Ticker { return idleTicker{} }),
	)
	if err := ctrl.Start(context.Background(), audio.NewPCMStream()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := ctrl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	rm := collect(t, reader)
	if got := sumValue(t, rm, "coach.sessions.started"); got != 1 {
		t.Errorf("expected 1 session started, got %d", got)
	}
	if got := sumValue(t, rm, "coach.sessions.active"); got != 0 {
		t.Errorf("expected no active sessions, got %d", got)
	}
}
