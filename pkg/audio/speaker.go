package audio

import (
	"context"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Speaker plays mono S16 PCM through the default output device.
type Speaker struct {
	sampleRate int

	mu      sync.Mutex
	pending []byte
	drained chan struct{}
}

// NewSpeaker creates a speaker for the given rate
func NewSpeaker(sampleRate int) *Speaker {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Speaker{sampleRate: sampleRate}
}

// Play blocks until pcm has been handed to the device or ctx is done. The
// device is opened per call so nothing is held between lesson segments.
func (s *Speaker) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return &InitError{Op: "init audio context", Err: err}
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	s.mu.Lock()
	s.pending = pcm
	s.drained = make(chan struct{})
	drained := s.drained
	s.mu.Unlock()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(s.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: s.fill})
	if err != nil {
		return &InitError{Op: "init playback device", Err: err}
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return &InitError{Op: "start playback device", Err: err}
	}
	defer device.Stop()

	select {
	case <-drained:
		// let the device flush its last period
		time.Sleep(50 * time.Millisecond)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Speaker) fill(pOutput, _ []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(pOutput, s.pending)
	s.pending = s.pending[n:]
	for i := n; i < len(pOutput); i++ {
		pOutput[i] = 0
	}
	if len(s.pending) == 0 && s.drained != nil {
		close(s.drained)
		s.drained = nil
	}
}
