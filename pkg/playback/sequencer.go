package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

// State of a lesson intro sequence
type State int

const (
	Idle State = iota
	PlayingGreeting
	PlayingLesson
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case PlayingGreeting:
		return "PLAYING_GREETING"
	case PlayingLesson:
		return "PLAYING_LESSON"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Sequencer plays a greeting followed by a lesson prompt. Each segment is
// synthesized and played in turn; Skip moves on to the next segment and
// Cancel ends the sequence. Every run ends in Finished.
type Sequencer struct {
	synth  Synthesizer
	player Player
	voice  Voice
	lang   Language
	logger analyzer.Logger
	hook   func(State)

	mu        sync.Mutex
	state     State
	running   bool
	cancelRun context.CancelFunc
	cancelSeg context.CancelCauseFunc
}

type SequencerOption func(*Sequencer)

func WithVoice(v Voice) SequencerOption {
	return func(s *Sequencer) { s.voice = v }
}

func WithLanguage(l Language) SequencerOption {
	return func(s *Sequencer) { s.lang = l }
}

func WithSequencerLogger(l analyzer.Logger) SequencerOption {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateHook registers fn to be called on every state change, on the
// goroutine running Play.
func WithStateHook(fn func(State)) SequencerOption {
	return func(s *Sequencer) { s.hook = fn }
}

func NewSequencer(synth Synthesizer, player Player, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		synth:  synth,
		player: player,
		voice:  VoiceF1,
		lang:   LanguageEn,
		logger: &analyzer.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type segment struct {
	state State
	text  string
}

// Play runs the sequence to completion. Empty segments are skipped. It
// returns the context error if the run was cancelled.
func (s *Sequencer) Play(ctx context.Context, greeting, lesson string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancelRun = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelRun = nil
		s.cancelSeg = nil
		s.running = false
		s.state = Finished
		s.mu.Unlock()
		if s.hook != nil {
			s.hook(Finished)
		}
	}()

	for _, seg := range []segment{{PlayingGreeting, greeting}, {PlayingLesson, lesson}} {
		if seg.text == "" {
			continue
		}
		if err := runCtx.Err(); err != nil {
			return err
		}
		if err := s.playSegment(runCtx, seg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) playSegment(runCtx context.Context, seg segment) error {
	segCtx, cancelSeg := context.WithCancelCause(runCtx)
	defer cancelSeg(nil)

	s.mu.Lock()
	s.cancelSeg = cancelSeg
	s.mu.Unlock()
	s.setState(seg.state)

	err := s.run(segCtx, seg.text)
	switch {
	case err == nil:
		return nil
	case runCtx.Err() != nil:
		return runCtx.Err()
	case context.Cause(segCtx) == errSkipped:
		s.logger.Info("segment skipped", "state", seg.state.String())
		return nil
	default:
		return fmt.Errorf("%s: %w", seg.state, err)
	}
}

func (s *Sequencer) run(ctx context.Context, text string) error {
	pcm, err := s.synth.Synthesize(ctx, text, s.voice, s.lang)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if err := s.player.Play(ctx, pcm); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Skip abandons the current segment and moves on to the next one
func (s *Sequencer) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelSeg != nil {
		s.cancelSeg(errSkipped)
	}
}

// Cancel stops the sequence; Play returns context.Canceled
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequencer) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if s.hook != nil {
		s.hook(st)
	}
}
