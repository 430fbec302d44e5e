package audio

import (
	"encoding/binary"
	"sync"
)

// Stream is a live mono audio input. Samples are delivered normalised to
// [-1, 1] on whatever goroutine the underlying device uses. Stop detaches
// the subscriber and releases the device; the stream can be started again.
type Stream interface {
	Start(onSamples func(samples []float32)) error
	Stop() error
}

// PCMStream is a push-fed Stream. Callers write little-endian signed 16-bit
// mono PCM and the subscriber receives the decoded samples.
type PCMStream struct {
	mu    sync.Mutex
	sink  func([]float32)
	carry []byte
}

// NewPCMStream creates an idle push-fed stream
func NewPCMStream() *PCMStream {
	return &PCMStream{}
}

func (s *PCMStream) Start(onSamples func([]float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink != nil {
		return ErrStreamStarted
	}
	s.sink = onSamples
	return nil
}

// Write decodes S16LE PCM and forwards it to the subscriber. A trailing odd
// byte is held back until the next write. Writes while no subscriber is
// attached are dropped.
func (s *PCMStream) Write(pcm []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink == nil {
		return len(pcm), nil
	}

	data := pcm
	if len(s.carry) > 0 {
		data = append(s.carry, pcm...)
		s.carry = nil
	}
	if len(data)%2 == 1 {
		s.carry = []byte{data[len(data)-1]}
		data = data[:len(data)-1]
	}
	if len(data) > 0 {
		s.sink(DecodeS16LE(data))
	}
	return len(pcm), nil
}

// WriteSamples forwards already-normalised samples to the subscriber.
func (s *PCMStream) WriteSamples(samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink != nil && len(samples) > 0 {
		s.sink(samples)
	}
	return nil
}

// Stop detaches the subscriber. It is safe to call more than once, and
// Start may attach a new subscriber afterwards.
func (s *PCMStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = nil
	s.carry = nil
	return nil
}

// Attached reports whether a subscriber is receiving samples
func (s *PCMStream) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil
}

// DecodeS16LE converts little-endian 16-bit PCM into samples in [-1, 1].
func DecodeS16LE(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = float32(sample) / 32768.0
	}
	return out
}

// EncodeS16LE converts samples in [-1, 1] into little-endian 16-bit PCM.
// Values outside the range are clipped.
func EncodeS16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s) * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
