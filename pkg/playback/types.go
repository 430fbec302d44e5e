package playback

import (
	"context"
	"errors"
)

type Voice string

const (
	VoiceF1 Voice = "F1"
	VoiceF2 Voice = "F2"
	VoiceF3 Voice = "F3"
	VoiceM1 Voice = "M1"
	VoiceM2 Voice = "M2"
	VoiceM3 Voice = "M3"
)

type Language string

const (
	LanguageEn Language = "en"
	LanguageEs Language = "es"
	LanguageFr Language = "fr"
	LanguageDe Language = "de"
)

// VoiceForTone picks the narrator voice for a coaching tone
func VoiceForTone(tone string) Voice {
	switch tone {
	case "direct":
		return VoiceM2
	case "formal":
		return VoiceM1
	default:
		return VoiceF1
	}
}

// Synthesizer turns text into mono S16LE PCM
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice, lang Language) ([]byte, error)
}

// Player plays PCM and returns once it has finished or ctx is done
type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

var (
	// ErrBusy is returned when Play is called while a sequence is running
	ErrBusy = errors.New("sequence already playing")

	// errSkipped cancels the current segment only
	errSkipped = errors.New("segment skipped")
)
