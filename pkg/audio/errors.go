package audio

import "errors"

var (
	// ErrStreamStarted is returned when a stream already has a subscriber
	ErrStreamStarted = errors.New("audio stream already started")

	// ErrAnalyserClosed is returned when sampling a closed analyser
	ErrAnalyserClosed = errors.New("audio analyser closed")

	// ErrInvalidWAV is returned when a buffer is not a PCM16 RIFF/WAVE file
	ErrInvalidWAV = errors.New("invalid wav data")
)

// InitError reports that the audio graph could not be constructed, either
// because the platform audio subsystem failed or the input stream refused
// to start. It is never retried internally.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return "audio init failed: " + e.Op
	}
	return "audio init failed: " + e.Op + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
