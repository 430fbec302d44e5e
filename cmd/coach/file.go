package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
	"github.com/lokutor-ai/delivery-coach/pkg/audio"
)

type fileCmd struct {
	Path string `arg:"" name:"path" type:"existingfile" help:"16-bit PCM WAV file to analyse"`
	JSON bool   `help:"Print the final metrics as JSON"`

	FeedbackFlags
}

func (c *fileCmd) Run(a *app) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	wav, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg.Analyzer()
	cfg.SampleRate = wav.SampleRate

	a.log.Info().
		Str("path", c.Path).
		Int("sample_rate", wav.SampleRate).
		Int("channels", wav.Channels).
		Float64("seconds", wav.Duration()).
		Msg("analysing file")

	final, err := analyzer.Replay(ctx, cfg, wav.Samples, nil)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			return err
		}
	} else {
		writeReport(os.Stdout, final)
	}
	return a.writeFeedback(os.Stdout, c.FeedbackFlags, final)
}
