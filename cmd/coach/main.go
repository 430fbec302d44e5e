package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/lokutor-ai/delivery-coach/internal/config"
	"github.com/lokutor-ai/delivery-coach/internal/logger"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Live  liveCmd  `cmd:"" help:"Coach a take from the microphone in real time"`
	File  fileCmd  `cmd:"" help:"Analyse a recorded 16-bit PCM WAV file"`
	Serve serveCmd `cmd:"" help:"Serve live analysis over websocket"`
}

// app is bound into every command's Run method
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("coach"),
		kong.Description("Voice delivery coach: volume, pitch and pause analysis with optional LLM feedback"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	a := &app{
		cfg: cfg,
		log: logger.New(cfg.LogLevel, cfg.LogFormat),
	}
	kctx.FatalIfErrorf(kctx.Run(a))
}
