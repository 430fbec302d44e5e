package analyzer

// MinPitchLag is the shortest lag, in samples, tried by EstimatePitch
const MinPitchLag = 20

// PitchConfidence is the correlation an estimate must exceed to be reported
const PitchConfidence = 0.5

// EstimatePitch returns the fundamental frequency of a byte waveform
// (128 = zero) using short-lag autocorrelation. For every lag from
// MinPitchLag up to half the buffer, the score is one minus the mean
// absolute difference between the buffer and its shifted self, over 255.
// It returns 0 when no lag scores above PitchConfidence; out-of-band values
// are left for the caller to reject.
func EstimatePitch(buf []byte, sampleRate int) float64 {
	n := len(buf)
	maxLag := n / 2
	if sampleRate <= 0 || maxLag <= MinPitchLag {
		return 0
	}

	bestLag := -1
	bestCorrelation := 0.0

	for lag := MinPitchLag; lag < maxLag; lag++ {
		var sum int
		count := n - lag
		for i := 0; i < count; i++ {
			d := int(buf[i]) - int(buf[i+lag])
			if d < 0 {
				d = -d
			}
			sum += d
		}
		correlation := 1 - (float64(sum)/float64(count))/255
		if correlation > bestCorrelation {
			bestCorrelation = correlation
			bestLag = lag
		}
	}

	if bestLag > 0 && bestCorrelation > PitchConfidence {
		return float64(sampleRate) / float64(bestLag)
	}
	return 0
}
