package analyzer

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scoring weights and thresholds. Feedback text is generated from these
// scores, so the values are fixed.
const (
	LongPauseThreshold = 2000 * time.Millisecond
	StrategicPauseMin  = 300 * time.Millisecond
	StrategicPauseMax  = 1500 * time.Millisecond

	VolumeStabilityFactor = 2.0
	PitchStabilityDivisor = 2.0

	ConfidenceBase             = 70.0
	ConfidenceStabilityWeight  = 0.3
	ConfidenceStabilityPivot   = 50.0
	ConfidenceVolumeMin        = 30.0
	ConfidenceVolumeMax        = 80.0
	ConfidenceVolumeBonus      = 10.0
	ConfidenceQuietPenaltyRate = 0.5
	ConfidenceDropPenalty      = 2.0
	ConfidenceDropPenaltyCap   = 15.0
	ConfidenceTrailPenalty     = 4.0
	ConfidenceTrailPenaltyCap  = 20.0
	ConfidenceLongPausePenalty = 5.0
	ConfidenceLongPauseCap     = 15.0

	PaceBase               = 70.0
	PaceStrategicBonus     = 3.0
	PaceStrategicBonusCap  = 15.0
	PaceIdealPauseMinMs    = 300.0
	PaceIdealPauseMaxMs    = 1000.0
	PaceLongAveragePauseMs = 2000.0
	PaceAveragePauseAdjust = 10.0

	DeliveryConfidenceWeight = 0.35
	DeliveryPaceWeight       = 0.30
	DeliveryVolumeWeight     = 0.20
	DeliveryPitchWeight      = 0.15

	// Raw pitch stability inside [PitchPlateauMin, PitchPlateauMax] is
	// credited as PitchPlateauValue in the delivery score.
	PitchPlateauMin   = 60.0
	PitchPlateauMax   = 85.0
	PitchPlateauValue = 85.0
)

// AggregateInput is the session state a snapshot is computed from
type AggregateInput struct {
	CurrentVolume int
	Speaking      bool

	Volumes []float64
	Pitches []float64
	Pauses  []Pause

	SpeakingTime time.Duration
	SilenceTime  time.Duration
	VolumeDrops  int
	TrailingOffs int
}

// Aggregate derives a VoiceMetrics snapshot. It is a pure function of its
// input: the same state always yields the same metrics.
func Aggregate(in AggregateInput) VoiceMetrics {
	m := VoiceMetrics{
		CurrentVolume:    in.CurrentVolume,
		IsSpeaking:       in.Speaking,
		VolumeDropCount:  in.VolumeDrops,
		TrailingOffCount: in.TrailingOffs,
		PauseCount:       len(in.Pauses),
		SpeakingTimeMs:   in.SpeakingTime.Milliseconds(),
		SilenceTimeMs:    in.SilenceTime.Milliseconds(),
	}

	volMean, volStd := meanStd(in.Volumes)
	m.AverageVolume = volMean
	m.VolumeStability = clamp(100-VolumeStabilityFactor*volStd, 0, 100)

	if len(in.Pitches) > 0 {
		pitchMean, pitchStd := meanStd(in.Pitches)
		m.AveragePitch = pitchMean
		m.PitchRange = floats.Max(in.Pitches) - floats.Min(in.Pitches)
		m.PitchStability = clamp(100-pitchStd/PitchStabilityDivisor, 0, 100)
	}

	var totalPause time.Duration
	for _, p := range in.Pauses {
		totalPause += p.Duration
		if p.Duration > LongPauseThreshold {
			m.LongPauseCount++
		}
		if p.Duration >= StrategicPauseMin && p.Duration <= StrategicPauseMax {
			m.StrategicPauseCount++
		}
	}
	if len(in.Pauses) > 0 {
		m.AveragePauseDurationMs = float64(totalPause) / float64(len(in.Pauses)) / float64(time.Millisecond)
	}

	if total := in.SpeakingTime + in.SilenceTime; total > 0 {
		m.SpeakingRatio = float64(in.SpeakingTime) / float64(total)
	}

	m.ConfidenceScore = confidenceScore(m)
	m.PaceScore = paceScore(m)
	m.DeliveryScore = deliveryScore(m)
	return m
}

func confidenceScore(m VoiceMetrics) int {
	score := ConfidenceBase
	score += ConfidenceStabilityWeight * (m.VolumeStability - ConfidenceStabilityPivot)

	switch {
	case m.AverageVolume >= ConfidenceVolumeMin && m.AverageVolume <= ConfidenceVolumeMax:
		score += ConfidenceVolumeBonus
	case m.AverageVolume < ConfidenceVolumeMin:
		score -= ConfidenceQuietPenaltyRate * (ConfidenceVolumeMin - m.AverageVolume)
	}

	score -= math.Min(ConfidenceDropPenaltyCap, ConfidenceDropPenalty*float64(m.VolumeDropCount))
	score -= math.Min(ConfidenceTrailPenaltyCap, ConfidenceTrailPenalty*float64(m.TrailingOffCount))
	score -= math.Min(ConfidenceLongPauseCap, ConfidenceLongPausePenalty*float64(m.LongPauseCount))

	switch r := m.SpeakingRatio; {
	case r >= 0.5 && r <= 0.8:
		score += 5
	case r > 0.9:
		score -= 5
	case r < 0.4:
		score -= 10
	}
	return int(math.Round(clamp(score, 0, 100)))
}

func paceScore(m VoiceMetrics) int {
	score := PaceBase

	switch r := m.SpeakingRatio; {
	case r >= 0.5 && r <= 0.75:
		score += 15
	case r > 0.85:
		score -= 10
	case r < 0.4:
		score -= 15
	}

	score += math.Min(PaceStrategicBonusCap, PaceStrategicBonus*float64(m.StrategicPauseCount))

	switch avg := m.AveragePauseDurationMs; {
	case avg >= PaceIdealPauseMinMs && avg <= PaceIdealPauseMaxMs:
		score += PaceAveragePauseAdjust
	case avg > PaceLongAveragePauseMs:
		score -= PaceAveragePauseAdjust
	}
	return int(math.Round(clamp(score, 0, 100)))
}

func deliveryScore(m VoiceMetrics) int {
	pitch := m.PitchStability
	if pitch >= PitchPlateauMin && pitch <= PitchPlateauMax {
		pitch = PitchPlateauValue
	}
	score := float64(m.ConfidenceScore)*DeliveryConfidenceWeight +
		float64(m.PaceScore)*DeliveryPaceWeight +
		m.VolumeStability*DeliveryVolumeWeight +
		pitch*DeliveryPitchWeight
	return int(clamp(math.Round(score), 0, 100))
}

// meanStd returns the mean and population standard deviation, both 0 for
// an empty slice.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(xs, nil)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
