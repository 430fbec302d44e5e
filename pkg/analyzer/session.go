package analyzer

import "time"

// Session owns the state of one analysis run: bounded volume and pitch
// histories, the activity tracker and its accumulators. A new Session is
// allocated for every run so nothing leaks between sessions. Session is not
// safe for concurrent use; the Controller serialises access to it.
type Session struct {
	cfg Config

	volumes *Ring[float64]
	pitches *Ring[float64]
	tracker *ActivityTracker

	start   time.Time
	last    time.Time
	ticks   int
	current int
}

// NewSession starts a session at the given time
func NewSession(cfg Config, start time.Time) *Session {
	return &Session{
		cfg:     cfg,
		volumes: NewRing[float64](cfg.VolumeHistorySize),
		pitches: NewRing[float64](cfg.PitchHistorySize),
		tracker: NewActivityTracker(cfg.SilenceThreshold, cfg.PauseMinDuration),
		start:   start,
		last:    start,
	}
}

// WantsPitch reports whether the next frame, at the given volume, will be
// pitch-estimated. Callers use it to skip reading the waveform otherwise.
func (s *Session) WantsPitch(volume int) bool {
	return volume > s.cfg.SilenceThreshold && (s.ticks+1)%s.cfg.PitchEvery == 0
}

// Observe folds one frame into the session. The time since the previous
// frame is credited to the frame's activity state; frames arriving out of
// order contribute no time.
func (s *Session) Observe(f Frame) ActivityEvent {
	elapsed := f.Time.Sub(s.last)
	if elapsed < 0 {
		elapsed = 0
	} else {
		s.last = f.Time
	}
	s.ticks++
	s.current = f.Volume

	s.volumes.Push(float64(f.Volume))
	ev := s.tracker.Update(f.Volume, f.Time, elapsed, s.volumes.Tail(TrailingOffWindow))

	if s.tracker.IsSpeaking() && s.ticks%s.cfg.PitchEvery == 0 && len(f.Waveform) > 0 {
		pitch := EstimatePitch(f.Waveform, s.cfg.SampleRate)
		if pitch >= s.cfg.MinPitchHz && pitch <= s.cfg.MaxPitchHz {
			s.pitches.Push(pitch)
		}
	}
	return ev
}

// Snapshot computes the metrics for the current state
func (s *Session) Snapshot() VoiceMetrics {
	return Aggregate(AggregateInput{
		CurrentVolume: s.current,
		Speaking:      s.tracker.IsSpeaking(),
		Volumes:       s.volumes.Values(),
		Pitches:       s.pitches.Values(),
		Pauses:        s.tracker.Pauses(),
		SpeakingTime:  s.tracker.SpeakingTime(),
		SilenceTime:   s.tracker.SilenceTime(),
		VolumeDrops:   s.tracker.VolumeDrops(),
		TrailingOffs:  s.tracker.TrailingOffs(),
	})
}

func (s *Session) Pauses() []Pause { return s.tracker.Pauses() }

func (s *Session) Ticks() int { return s.ticks }

func (s *Session) Speaking() bool { return s.tracker.IsSpeaking() }

func (s *Session) VolumeHistory() []float64 { return s.volumes.Values() }

func (s *Session) PitchHistory() []float64 { return s.pitches.Values() }

// Elapsed is the tracked session time, speaking plus silence
func (s *Session) Elapsed() time.Duration {
	return s.tracker.SpeakingTime() + s.tracker.SilenceTime()
}

func (s *Session) Started() time.Time { return s.start }
