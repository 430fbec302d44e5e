package analyzer

import "time"

type ActivityEventType string

const (
	SpeechStart    ActivityEventType = "SPEECH_START"
	SpeechEnd      ActivityEventType = "SPEECH_END"
	PauseRecorded  ActivityEventType = "PAUSE_RECORDED"
	VolumeDrop     ActivityEventType = "VOLUME_DROP"
	TrailingOff    ActivityEventType = "TRAILING_OFF"
	ActivityNormal ActivityEventType = "NONE"
)

// ActivityEvent lists what happened on one tick. A single tick can both end
// speech and count as trailing off, or resume speech and record a pause.
type ActivityEvent struct {
	Types []ActivityEventType
	Pause *Pause
}

// Has reports whether the tick produced an event of type t
func (e ActivityEvent) Has(t ActivityEventType) bool {
	for _, et := range e.Types {
		if et == t {
			return true
		}
	}
	return false
}

// ActivityTracker classifies frames as speaking or silent and keeps the
// pause bookkeeping and session accumulators. It starts SILENT.
type ActivityTracker struct {
	threshold int
	pauseMin  time.Duration

	state      ActivityState
	prevVolume int
	hasPrev    bool

	// pauseStart is zero while no pause is open
	pauseStart time.Time
	pauses     []Pause

	speakingTime time.Duration
	silenceTime  time.Duration
	drops        int
	trailingOffs int
}

// NewActivityTracker creates a tracker. Volumes strictly above threshold
// are speech; silences shorter than pauseMin are discarded.
func NewActivityTracker(threshold int, pauseMin time.Duration) *ActivityTracker {
	return &ActivityTracker{
		threshold: threshold,
		pauseMin:  pauseMin,
	}
}

// Update classifies one frame. elapsed is the real time since the previous
// frame and is credited to the new frame's state. recent holds the newest
// volume samples, current frame last, and is only read on a speech end.
func (t *ActivityTracker) Update(volume int, now time.Time, elapsed time.Duration, recent []float64) ActivityEvent {
	var ev ActivityEvent
	if elapsed < 0 {
		elapsed = 0
	}

	speaking := volume > t.threshold
	wasSpeaking := t.state == Speaking

	if wasSpeaking && speaking && t.hasPrev && t.prevVolume-volume > VolumeDropThreshold {
		t.drops++
		ev.Types = append(ev.Types, VolumeDrop)
	}

	switch {
	case speaking && !wasSpeaking:
		t.state = Speaking
		ev.Types = append(ev.Types, SpeechStart)
		if !t.pauseStart.IsZero() {
			if p, ok := t.closePause(now); ok {
				ev.Types = append(ev.Types, PauseRecorded)
				ev.Pause = &p
			}
		}
	case !speaking && wasSpeaking:
		t.state = Silent
		ev.Types = append(ev.Types, SpeechEnd)
		if t.pauseStart.IsZero() {
			t.pauseStart = now
		}
		if isTrailingOff(recent) {
			t.trailingOffs++
			ev.Types = append(ev.Types, TrailingOff)
		}
	}

	if speaking {
		t.speakingTime += elapsed
	} else {
		t.silenceTime += elapsed
	}

	t.prevVolume = volume
	t.hasPrev = true
	return ev
}

// closePause ends the open pause. Short silences are dropped but the
// marker is cleared either way.
func (t *ActivityTracker) closePause(now time.Time) (Pause, bool) {
	start := t.pauseStart
	t.pauseStart = time.Time{}

	d := now.Sub(start)
	if d < t.pauseMin {
		return Pause{}, false
	}
	p := Pause{Start: start, End: now, Duration: d}
	t.pauses = append(t.pauses, p)
	return p, true
}

func isTrailingOff(recent []float64) bool {
	if len(recent) < TrailingOffWindow {
		return false
	}
	window := recent[len(recent)-TrailingOffWindow:]
	for i := 1; i < len(window); i++ {
		if window[i] > window[i-1]+TrailingOffTolerance {
			return false
		}
	}
	return true
}

func (t *ActivityTracker) State() ActivityState { return t.state }

func (t *ActivityTracker) IsSpeaking() bool { return t.state == Speaking }

// PauseOpen reports whether a silence following speech is in progress
func (t *ActivityTracker) PauseOpen() bool { return !t.pauseStart.IsZero() }

// Pauses returns a copy of the recorded pauses
func (t *ActivityTracker) Pauses() []Pause {
	out := make([]Pause, len(t.pauses))
	copy(out, t.pauses)
	return out
}

func (t *ActivityTracker) SpeakingTime() time.Duration { return t.speakingTime }

func (t *ActivityTracker) SilenceTime() time.Duration { return t.silenceTime }

func (t *ActivityTracker) VolumeDrops() int { return t.drops }

func (t *ActivityTracker) TrailingOffs() int { return t.trailingOffs }

func (t *ActivityTracker) Reset() {
	*t = ActivityTracker{threshold: t.threshold, pauseMin: t.pauseMin}
}
