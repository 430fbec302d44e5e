package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lokutor-ai/delivery-coach/internal/logger"
	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/audio"
	"github.com/lokutor-ai/delivery-coach/pkg/playback"
)

type liveCmd struct {
	Seconds       int    `help:"Stop after N seconds (0 waits for Ctrl+C)" default:"0"`
	IntroGreeting string `name:"intro-greeting" help:"Greeting spoken before the take (needs LOKUTOR_API_KEY)"`
	IntroLesson   string `name:"intro-lesson" help:"Lesson prompt spoken after the greeting"`
	Record        string `type:"path" help:"Save the take to this WAV file"`

	FeedbackFlags
}

func (c *liveCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.IntroGreeting != "" || c.IntroLesson != "" {
		if err := c.playIntro(ctx, a); err != nil {
			return fmt.Errorf("lesson intro: %w", err)
		}
	}

	mic := audio.NewMicStream(a.cfg.SampleRate)
	var (
		recMu    sync.Mutex
		recorded []byte
	)
	if c.Record != "" {
		mic.Tap = func(pcm []byte) {
			recMu.Lock()
			recorded = append(recorded, pcm...)
			recMu.Unlock()
		}
	}

	ctrl := analyzer.New(
		analyzer.WithConfig(a.cfg.Analyzer()),
		analyzer.WithLogger(logger.NewAdapter(a.log)),
	)
	defer ctrl.Close()

	if err := ctrl.Start(ctx, mic); err != nil {
		return err
	}
	log := a.log
	if id, err := ctrl.SessionID(); err == nil {
		log = logger.WithSession(log, id)
	}
	fmt.Println("Listening... press Ctrl+C to finish")

	var deadline <-chan time.Time
	if c.Seconds > 0 {
		timer := time.NewTimer(time.Duration(c.Seconds) * time.Second)
		defer timer.Stop()
		deadline = timer.C
	}

	updates := ctrl.Updates()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case m, ok := <-updates:
			if !ok {
				break loop
			}
			fmt.Print(meterLine(m))
		}
	}
	fmt.Print("\r\033[K")

	final, err := ctrl.Stop()
	if err != nil {
		log.Warn().Err(err).Msg("microphone release failed")
	}

	if c.Record != "" {
		recMu.Lock()
		wav := audio.NewWavBuffer(recorded, a.cfg.SampleRate)
		recMu.Unlock()
		if err := os.WriteFile(c.Record, wav, 0o644); err != nil {
			return fmt.Errorf("save recording: %w", err)
		}
		log.Info().Str("path", c.Record).Int("bytes", len(wav)).Msg("take saved")
	}

	writeReport(os.Stdout, final)
	return a.writeFeedback(os.Stdout, c.FeedbackFlags, final)
}

func (c *liveCmd) playIntro(ctx context.Context, a *app) error {
	if a.cfg.LokutorAPIKey == "" {
		return fmt.Errorf("LOKUTOR_API_KEY must be set to speak the intro")
	}

	synth := playback.NewLokutorSynth(a.cfg.LokutorAPIKey)
	defer synth.Close()

	seq := playback.NewSequencer(synth, audio.NewSpeaker(audio.DefaultSampleRate),
		playback.WithVoice(playback.VoiceForTone(c.Tone)),
		playback.WithLanguage(playback.Language(a.cfg.LokutorLanguage)),
		playback.WithSequencerLogger(logger.NewAdapter(a.log)),
		playback.WithStateHook(func(s playback.State) {
			a.log.Debug().Stringer("state", s).Msg("intro")
		}),
	)
	return seq.Play(ctx, c.IntroGreeting, c.IntroLesson)
}
