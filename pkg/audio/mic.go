package audio

import (
	"sync"

	"github.com/gen2brain/malgo"
)

// MicStream captures mono S16 audio from the default input device.
type MicStream struct {
	sampleRate int

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	// Tap, when set, receives a copy of every captured PCM block
	Tap func(pcm []byte)
}

// NewMicStream creates a capture stream; the device is opened on Start.
func NewMicStream(sampleRate int) *MicStream {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &MicStream{sampleRate: sampleRate}
}

// SampleRate returns the capture rate in Hz
func (m *MicStream) SampleRate() int {
	return m.sampleRate
}

// Start opens the capture device and delivers samples to onSamples from the
// device callback. Platform failures are returned as *InitError.
func (m *MicStream) Start(onSamples func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return ErrStreamStarted
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return &InitError{Op: "init audio context", Err: err}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	tap := m.Tap
	onData := func(_, pInput []byte, _ uint32) {
		if len(pInput) == 0 {
			return
		}
		if tap != nil {
			block := make([]byte, len(pInput))
			copy(block, pInput)
			tap(block)
		}
		onSamples(DecodeS16LE(pInput))
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return &InitError{Op: "init capture device", Err: err}
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return &InitError{Op: "start capture device", Err: err}
	}

	m.ctx = mctx
	m.device = device
	return nil
}

// Stop releases the capture device. It is safe to call more than once; a
// later Start opens the device again.
func (m *MicStream) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil
	}

	err := m.device.Stop()
	m.device.Uninit()
	m.device = nil

	if uerr := m.ctx.Uninit(); uerr != nil && err == nil {
		err = uerr
	}
	m.ctx.Free()
	m.ctx = nil
	return err
}
