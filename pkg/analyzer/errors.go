package analyzer

import (
	"errors"

	"github.com/lokutor-ai/delivery-coach/pkg/audio"
)

// Custom error types for better error discrimination
var (
	// ErrNilStream is returned when Start is called without an audio source
	ErrNilStream = errors.New("audio stream is nil")

	// ErrNotAnalyzing is returned when a session-scoped call is made with no
	// session running
	ErrNotAnalyzing = errors.New("not analyzing")

	// ErrClosed is returned when starting a controller that has been closed
	ErrClosed = errors.New("analyzer closed")

	// ErrInvalidConfig is returned when a Config fails validation
	ErrInvalidConfig = errors.New("invalid analyzer config")
)

// AudioInitError is surfaced by Start when the audio graph cannot be built.
// Match it with errors.As; it is not retried internally.
type AudioInitError = audio.InitError
