package analyzer

import (
	"fmt"
	"time"
)

type Logger interface {
	Debug(msg string, args ...interface{})

	Info(msg string, args ...interface{})

	Warn(msg string, args ...interface{})

	Error(msg string, args ...interface{})
}

type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// Tunables with their default values. Changing any of these changes the
// scores users see, so they are exposed as named constants rather than
// inlined.
const (
	DefaultSilenceThreshold  = 15
	DefaultPauseMinDuration  = 200 * time.Millisecond
	DefaultVolumeHistorySize = 300
	DefaultPitchHistorySize  = 100
	DefaultMinPitchHz        = 50.0
	DefaultMaxPitchHz        = 500.0
	DefaultPitchEvery        = 10
	DefaultPublishEvery      = 6
	DefaultTickRate          = 60
	DefaultSampleRate        = 44100
	DefaultFFTSize           = 2048
	DefaultSmoothing         = 0.8

	// VolumeDropThreshold is the loudness collapse between two speaking
	// frames that counts as a drop. The difference must exceed it.
	VolumeDropThreshold = 20

	// TrailingOffWindow samples must each be at most TrailingOffTolerance
	// above their predecessor for a speech end to count as trailing off.
	TrailingOffWindow    = 10
	TrailingOffTolerance = 2
)

// ActivityState is the speaking/silent classification of a frame
type ActivityState int

const (
	Silent ActivityState = iota
	Speaking
)

func (s ActivityState) String() string {
	switch s {
	case Silent:
		return "SILENT"
	case Speaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// Frame is one sampling tick's reading. Waveform is only populated on ticks
// where a pitch estimate is wanted.
type Frame struct {
	Volume   int
	Waveform []byte
	Time     time.Time
}

// Pause is a silence run that followed speech and lasted at least the
// minimum pause duration. It is recorded when speech resumes.
type Pause struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// VoiceMetrics is the published snapshot. It is recomputed from session
// state on every publish, never patched.
type VoiceMetrics struct {
	CurrentVolume int  `json:"current_volume"`
	IsSpeaking    bool `json:"is_speaking"`

	AverageVolume    float64 `json:"average_volume"`
	VolumeStability  float64 `json:"volume_stability"`
	VolumeDropCount  int     `json:"volume_drop_count"`
	TrailingOffCount int     `json:"trailing_off_count"`

	AveragePitch   float64 `json:"average_pitch"`
	PitchRange     float64 `json:"pitch_range"`
	PitchStability float64 `json:"pitch_stability"`

	PauseCount             int     `json:"pause_count"`
	LongPauseCount         int     `json:"long_pause_count"`
	StrategicPauseCount    int     `json:"strategic_pause_count"`
	AveragePauseDurationMs float64 `json:"average_pause_duration_ms"`

	SpeakingTimeMs int64   `json:"speaking_time_ms"`
	SilenceTimeMs  int64   `json:"silence_time_ms"`
	SpeakingRatio  float64 `json:"speaking_ratio"`

	ConfidenceScore int `json:"confidence_score"`
	PaceScore       int `json:"pace_score"`
	DeliveryScore   int `json:"delivery_score"`
}

type Config struct {
	SampleRate int
	FFTSize    int
	Smoothing  float64

	// TickInterval is the nominal sampling period. Durations are accumulated
	// from actual tick timestamps, so jitter does not cause drift.
	TickInterval time.Duration

	SilenceThreshold int
	PauseMinDuration time.Duration

	VolumeHistorySize int
	PitchHistorySize  int
	MinPitchHz        float64
	MaxPitchHz        float64

	// PitchEvery throttles pitch estimation to one in N ticks while speaking
	PitchEvery int

	// PublishEvery throttles snapshot publication to one in N ticks
	PublishEvery int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        DefaultSampleRate,
		FFTSize:           DefaultFFTSize,
		Smoothing:         DefaultSmoothing,
		TickInterval:      time.Second / DefaultTickRate,
		SilenceThreshold:  DefaultSilenceThreshold,
		PauseMinDuration:  DefaultPauseMinDuration,
		VolumeHistorySize: DefaultVolumeHistorySize,
		PitchHistorySize:  DefaultPitchHistorySize,
		MinPitchHz:        DefaultMinPitchHz,
		MaxPitchHz:        DefaultMaxPitchHz,
		PitchEvery:        DefaultPitchEvery,
		PublishEvery:      DefaultPublishEvery,
	}
}

// Validate reports the first incoherent setting
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	case c.SilenceThreshold < 0 || c.SilenceThreshold > 100:
		return fmt.Errorf("silence threshold %d outside 0..100", c.SilenceThreshold)
	case c.PauseMinDuration < 0:
		return fmt.Errorf("pause minimum must not be negative, got %s", c.PauseMinDuration)
	case c.VolumeHistorySize < TrailingOffWindow:
		return fmt.Errorf("volume history must hold at least %d samples, got %d", TrailingOffWindow, c.VolumeHistorySize)
	case c.PitchHistorySize <= 0:
		return fmt.Errorf("pitch history size must be positive, got %d", c.PitchHistorySize)
	case c.MinPitchHz <= 0 || c.MinPitchHz >= c.MaxPitchHz:
		return fmt.Errorf("pitch band [%.0f, %.0f] is invalid", c.MinPitchHz, c.MaxPitchHz)
	case c.PitchEvery <= 0 || c.PublishEvery <= 0:
		return fmt.Errorf("throttles must be positive (pitch %d, publish %d)", c.PitchEvery, c.PublishEvery)
	}
	return nil
}
