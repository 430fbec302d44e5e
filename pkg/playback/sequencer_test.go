package playback

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []byte(text), nil
}

// blockingPlayer finishes a segment only when released or cancelled.
type blockingPlayer struct {
	started chan string
	release chan struct{}
	block   bool
}

func newBlockingPlayer(block bool) *blockingPlayer {
	return &blockingPlayer{
		started: make(chan string, 4),
		release: make(chan struct{}),
		block:   block,
	}
}

func (p *blockingPlayer) Play(ctx context.Context, pcm []byte) error {
	p.started <- string(pcm)
	if !p.block {
		return nil
	}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func waitStarted(t *testing.T, p *blockingPlayer, want string) {
	t.Helper()
	select {
	case got := <-p.started:
		if got != want {
			t.Fatalf("expected %q to play, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestSequencer_PlaysBothSegments(t *testing.T) {
	synth := &fakeSynth{}
	log := &stateLog{}
	seq := NewSequencer(synth, newBlockingPlayer(false), WithStateHook(log.record))

	if seq.State() != Idle {
		t.Fatalf("expected Idle, got %s", seq.State())
	}
	if err := seq.Play(context.Background(), "hello", "lesson one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []State{PlayingGreeting, PlayingLesson, Finished}
	if got := log.get(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected states %v, got %v", want, got)
	}
	if !reflect.DeepEqual(synth.texts, []string{"hello", "lesson one"}) {
		t.Errorf("unexpected synthesis order: %v", synth.texts)
	}
	if seq.State() != Finished {
		t.Errorf("expected Finished, got %s", seq.State())
	}
}

func TestSequencer_EmptyGreeting(t *testing.T) {
	log := &stateLog{}
	seq := NewSequencer(&fakeSynth{}, newBlockingPlayer(false), WithStateHook(log.record))

	if err := seq.Play(context.Background(), "", "lesson"); err != nil {
		t.Fatal(err)
	}
	want := []State{PlayingLesson, Finished}
	if got := log.get(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected states %v, got %v", want, got)
	}
}

func TestSequencer_SkipAdvances(t *testing.T) {
	player := newBlockingPlayer(true)
	seq := NewSequencer(&fakeSynth{}, player)

	done := make(chan error, 1)
	go func() { done <- seq.Play(context.Background(), "greeting", "lesson") }()

	waitStarted(t, player, "greeting")
	if seq.State() != PlayingGreeting {
		t.Errorf("expected PlayingGreeting, got %s", seq.State())
	}
	seq.Skip()

	waitStarted(t, player, "lesson")
	if seq.State() != PlayingLesson {
		t.Errorf("expected PlayingLesson, got %s", seq.State())
	}
	close(player.release)

	if err := <-done; err != nil {
		t.Errorf("skip must not fail the sequence: %v", err)
	}
	if seq.State() != Finished {
		t.Errorf("expected Finished, got %s", seq.State())
	}
}

func TestSequencer_Cancel(t *testing.T) {
	player := newBlockingPlayer(true)
	synth := &fakeSynth{}
	seq := NewSequencer(synth, player)

	done := make(chan error, 1)
	go func() { done <- seq.Play(context.Background(), "greeting", "lesson") }()

	waitStarted(t, player, "greeting")
	if err := seq.Play(context.Background(), "x", "y"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy while playing, got %v", err)
	}
	seq.Cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if seq.State() != Finished {
		t.Errorf("expected Finished after cancel, got %s", seq.State())
	}
	if len(synth.texts) != 1 {
		t.Errorf("lesson must not be synthesized after cancel, got %v", synth.texts)
	}
}

func TestSequencer_SynthError(t *testing.T) {
	cause := errors.New("tts down")
	seq := NewSequencer(&fakeSynth{err: cause}, newBlockingPlayer(false))

	err := seq.Play(context.Background(), "greeting", "lesson")
	if !errors.Is(err, cause) {
		t.Errorf("expected synth error, got %v", err)
	}
	if seq.State() != Finished {
		t.Errorf("expected Finished after error, got %s", seq.State())
	}

	// a finished sequencer can play again
	seq.synth = &fakeSynth{}
	if err := seq.Play(context.Background(), "", "lesson"); err != nil {
		t.Errorf("replay failed: %v", err)
	}
}
