package analyzer

import (
	"math"
	"testing"
	"time"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func pausesOf(ds ...time.Duration) []Pause {
	out := make([]Pause, len(ds))
	t := time.Unix(0, 0)
	for i, d := range ds {
		out[i] = Pause{Start: t, End: t.Add(d), Duration: d}
		t = t.Add(d + time.Second)
	}
	return out
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(AggregateInput{})

	if m.AverageVolume != 0 || m.VolumeStability != 100 {
		t.Errorf("expected average 0 and stability 100, got %v / %v", m.AverageVolume, m.VolumeStability)
	}
	if m.AveragePitch != 0 || m.PitchRange != 0 || m.PitchStability != 0 {
		t.Errorf("pitch fields must be 0 without pitch history, got %+v", m)
	}
	if m.SpeakingRatio != 0 {
		t.Errorf("expected ratio 0 with no elapsed time, got %v", m.SpeakingRatio)
	}
	// 70 + 15 (stability) - 15 (silent) - 10 (ratio < 0.4)
	if m.ConfidenceScore != 60 {
		t.Errorf("expected confidence 60, got %d", m.ConfidenceScore)
	}
	if m.PaceScore != 55 {
		t.Errorf("expected pace 55, got %d", m.PaceScore)
	}
}

func TestAggregate_ConstantVolumeIsFullyStable(t *testing.T) {
	for _, v := range []float64{0, 17, 50, 100} {
		m := Aggregate(AggregateInput{Volumes: repeat(v, 300)})
		if !approx(m.VolumeStability, 100) {
			t.Errorf("volume %v: expected stability 100, got %v", v, m.VolumeStability)
		}
	}
}

func TestAggregate_VolumeStability(t *testing.T) {
	// population stddev of {40, 60} is 10
	m := Aggregate(AggregateInput{Volumes: []float64{40, 60, 40, 60}})
	if !approx(m.AverageVolume, 50) {
		t.Errorf("expected average 50, got %v", m.AverageVolume)
	}
	if !approx(m.VolumeStability, 80) {
		t.Errorf("expected stability 80, got %v", m.VolumeStability)
	}

	m = Aggregate(AggregateInput{Volumes: []float64{0, 100}})
	if m.VolumeStability != 0 {
		t.Errorf("expected stability clamped to 0, got %v", m.VolumeStability)
	}
}

func TestAggregate_PauseClassification(t *testing.T) {
	m := Aggregate(AggregateInput{
		Pauses: pausesOf(
			250*time.Millisecond,
			300*time.Millisecond,
			1500*time.Millisecond,
			1501*time.Millisecond,
			2000*time.Millisecond,
			2001*time.Millisecond,
		),
	})

	if m.PauseCount != 6 {
		t.Errorf("expected 6 pauses, got %d", m.PauseCount)
	}
	if m.StrategicPauseCount != 2 {
		t.Errorf("expected 2 strategic pauses (300ms and 1500ms), got %d", m.StrategicPauseCount)
	}
	if m.LongPauseCount != 1 {
		t.Errorf("expected 1 long pause (2001ms), got %d", m.LongPauseCount)
	}
	want := float64(250+300+1500+1501+2000+2001) / 6
	if math.Abs(m.AveragePauseDurationMs-want) > 1e-9 {
		t.Errorf("expected average pause %vms, got %v", want, m.AveragePauseDurationMs)
	}
}

func TestAggregate_Pitch(t *testing.T) {
	m := Aggregate(AggregateInput{Pitches: []float64{100, 220}})

	if !approx(m.AveragePitch, 160) {
		t.Errorf("expected average 160, got %v", m.AveragePitch)
	}
	if m.PitchRange != 120 {
		t.Errorf("expected range 120, got %v", m.PitchRange)
	}
	if !approx(m.PitchStability, 70) {
		t.Errorf("expected stability 70, got %v", m.PitchStability)
	}
}

func TestAggregate_Scores(t *testing.T) {
	tests := []struct {
		name           string
		in             AggregateInput
		wantConfidence int
		wantPace       int
		wantDelivery   int
	}{
		{
			name: "balanced delivery",
			in: AggregateInput{
				Volumes:      repeat(50, 100),
				SpeakingTime: 6 * time.Second,
				SilenceTime:  4 * time.Second,
				Pauses:       pausesOf(500*time.Millisecond, 700*time.Millisecond),
			},
			// 70+15+10+5 and 70+15+6+10, both clamped to 100
			wantConfidence: 100,
			wantPace:       100,
			wantDelivery:   85,
		},
		{
			name: "pitch stability on the plateau",
			in: AggregateInput{
				Volumes:      repeat(50, 100),
				Pitches:      []float64{100, 220},
				SpeakingTime: 6 * time.Second,
				SilenceTime:  4 * time.Second,
				Pauses:       pausesOf(500*time.Millisecond, 700*time.Millisecond),
			},
			// 35 + 30 + 20 + 85*0.15
			wantConfidence: 100,
			wantPace:       100,
			wantDelivery:   98,
		},
		{
			name: "pitch stability above the plateau",
			in: AggregateInput{
				Volumes:      repeat(50, 100),
				Pitches:      []float64{150, 170},
				SpeakingTime: 6 * time.Second,
				SilenceTime:  4 * time.Second,
				Pauses:       pausesOf(500*time.Millisecond, 700*time.Millisecond),
			},
			// 35 + 30 + 20 + 95*0.15
			wantConfidence: 100,
			wantPace:       100,
			wantDelivery:   99,
		},
		{
			name: "quiet speaker",
			in: AggregateInput{
				Volumes:     repeat(10, 100),
				SilenceTime: 10 * time.Second,
			},
			// 70+15-10-10; 70-15; 22.75+16.5+20+0
			wantConfidence: 65,
			wantPace:       55,
			wantDelivery:   59,
		},
		{
			name: "penalties are capped",
			in: AggregateInput{
				Volumes:      repeat(50, 100),
				SpeakingTime: 95 * time.Second,
				SilenceTime:  5 * time.Second,
				VolumeDrops:  100,
				TrailingOffs: 100,
				Pauses:       pausesOf(3*time.Second, 3*time.Second, 3*time.Second, 3*time.Second),
			},
			// 70+15+10-15-20-15-5; 70-10-10
			wantConfidence: 40,
			wantPace:       50,
			wantDelivery:   49,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Aggregate(tt.in)
			if m.ConfidenceScore != tt.wantConfidence {
				t.Errorf("confidence: expected %d, got %d", tt.wantConfidence, m.ConfidenceScore)
			}
			if m.PaceScore != tt.wantPace {
				t.Errorf("pace: expected %d, got %d", tt.wantPace, m.PaceScore)
			}
			if m.DeliveryScore != tt.wantDelivery {
				t.Errorf("delivery: expected %d, got %d", tt.wantDelivery, m.DeliveryScore)
			}
		})
	}
}

func TestAggregate_IsPure(t *testing.T) {
	in := AggregateInput{
		CurrentVolume: 42,
		Speaking:      true,
		Volumes:       []float64{30, 45, 60, 20},
		Pitches:       []float64{180, 190, 210},
		Pauses:        pausesOf(400 * time.Millisecond),
		SpeakingTime:  3 * time.Second,
		SilenceTime:   time.Second,
		VolumeDrops:   1,
	}
	if a, b := Aggregate(in), Aggregate(in); a != b {
		t.Errorf("expected identical snapshots, got %+v and %+v", a, b)
	}
}

func TestAggregate_UsesPopulationDeviation(t *testing.T) {
	// population std of {10,20,30,40} is sqrt(125); the sample estimate would give ~74.18
	m := Aggregate(AggregateInput{
		Volumes: []float64{10, 20, 30, 40},
		Pitches: []float64{150, 120, 180},
	})

	if want := 100 - 2*math.Sqrt(125); math.Abs(m.VolumeStability-want) > 1e-9 {
		t.Errorf("VolumeStability = %.4f, want %.4f", m.VolumeStability, want)
	}
	if !approx(m.AverageVolume, 25) {
		t.Errorf("AverageVolume = %v, want 25", m.AverageVolume)
	}
	if m.PitchRange != 60 {
		t.Errorf("PitchRange = %v, want 60", m.PitchRange)
	}
	// population std of {150,120,180} is sqrt(600)
	if want := 100 - math.Sqrt(600)/2; math.Abs(m.PitchStability-want) > 1e-9 {
		t.Errorf("PitchStability = %.4f, want %.4f", m.PitchStability, want)
	}
}

func TestMeanStd_Empty(t *testing.T) {
	mean, std := meanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("meanStd(nil) = %v, %v; want 0, 0", mean, std)
	}
}
