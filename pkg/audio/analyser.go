package audio

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// DefaultFFTSize is the analysis window in samples
	DefaultFFTSize = 2048

	// DefaultSmoothing is the time-averaging constant applied to successive spectra
	DefaultSmoothing = 0.8

	// DefaultSampleRate is used when a stream does not report its own rate
	DefaultSampleRate = 44100

	// DefaultMinDecibels and DefaultMaxDecibels bound the byte frequency scale
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	// VolumeScale converts the mean byte magnitude into a 0-100 level
	VolumeScale = 0.8
)

// Analyser keeps the most recent window of an input stream and exposes a
// scalar volume level and the raw waveform for that window. It plays the
// role of a browser AnalyserNode: frequency data is time-smoothed across
// calls to Volume and scaled to bytes over a fixed decibel range.
type Analyser struct {
	mu sync.Mutex

	stream     Stream
	fftSize    int
	sampleRate int
	smoothing  float64
	minDB      float64
	maxDB      float64

	fft      *fourier.FFT
	window   []float64
	ring     []float32
	pos      int
	smoothed []float64
	scratch  []float64
	coeffs   []complex128
	freq     []byte

	closed    bool
	closeOnce sync.Once
}

// Option configures an Analyser
type Option func(*Analyser)

// WithFFTSize sets the analysis window. It must be a power of two in [32, 32768].
func WithFFTSize(n int) Option {
	return func(a *Analyser) { a.fftSize = n }
}

// WithSmoothing sets the spectral smoothing constant in [0, 1).
func WithSmoothing(s float64) Option {
	return func(a *Analyser) { a.smoothing = s }
}

// WithSampleRate records the stream's sample rate for pitch conversion.
func WithSampleRate(rate int) Option {
	return func(a *Analyser) { a.sampleRate = rate }
}

// WithDecibelRange sets the dB range mapped onto 0..255.
func WithDecibelRange(min, max float64) Option {
	return func(a *Analyser) {
		a.minDB = min
		a.maxDB = max
	}
}

// Open builds an analysis graph over stream and subscribes to it. Any
// failure is returned as an *InitError.
func Open(stream Stream, opts ...Option) (*Analyser, error) {
	if stream == nil {
		return nil, &InitError{Op: "open", Err: fmt.Errorf("nil stream")}
	}

	a := &Analyser{
		stream:     stream,
		fftSize:    DefaultFFTSize,
		sampleRate: DefaultSampleRate,
		smoothing:  DefaultSmoothing,
		minDB:      DefaultMinDecibels,
		maxDB:      DefaultMaxDecibels,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.validate(); err != nil {
		return nil, &InitError{Op: "configure analyser", Err: err}
	}

	a.fft = fourier.NewFFT(a.fftSize)
	a.window = blackman(a.fftSize)
	a.ring = make([]float32, a.fftSize)
	a.smoothed = make([]float64, a.fftSize/2)
	a.scratch = make([]float64, a.fftSize)
	a.freq = make([]byte, a.fftSize/2)

	if err := stream.Start(a.push); err != nil {
		return nil, &InitError{Op: "start stream", Err: err}
	}
	return a, nil
}

func (a *Analyser) validate() error {
	n := a.fftSize
	if n < 32 || n > 32768 || n&(n-1) != 0 {
		return fmt.Errorf("fft size %d is not a power of two in [32, 32768]", n)
	}
	if a.smoothing < 0 || a.smoothing >= 1 {
		return fmt.Errorf("smoothing %.2f out of range [0, 1)", a.smoothing)
	}
	if a.minDB >= a.maxDB {
		return fmt.Errorf("decibel range [%.1f, %.1f] is empty", a.minDB, a.maxDB)
	}
	if a.sampleRate <= 0 {
		return fmt.Errorf("sample rate %d must be positive", a.sampleRate)
	}
	return nil
}

func (a *Analyser) push(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if len(samples) >= a.fftSize {
		copy(a.ring, samples[len(samples)-a.fftSize:])
		a.pos = 0
		return
	}
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos++
		if a.pos == a.fftSize {
			a.pos = 0
		}
	}
}

// SampleRate returns the configured sample rate
func (a *Analyser) SampleRate() int {
	return a.sampleRate
}

// FFTSize returns the analysis window size
func (a *Analyser) FFTSize() int {
	return a.fftSize
}

// Volume returns the current level in 0..100.
func (a *Analyser) Volume() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, ErrAnalyserClosed
	}
	a.updateFrequencyData()
	return LevelFromSpectrum(a.freq), nil
}

// FrequencyData returns a copy of the byte spectrum computed by the last
// call to Volume.
func (a *Analyser) FrequencyData() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]byte, len(a.freq))
	copy(out, a.freq)
	return out
}

// Waveform returns the current window as unsigned bytes centred on 128.
func (a *Analyser) Waveform() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrAnalyserClosed
	}
	out := make([]byte, a.fftSize)
	for i := range out {
		x := float64(a.ring[(a.pos+i)%a.fftSize])
		v := math.Floor(128 * (1 + x))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Close detaches the analyser from its stream, which releases any device
// behind it. The stream itself stays usable and can feed a new analyser.
// Close is idempotent: only the call that performs the teardown can return
// the stream's stop error.
func (a *Analyser) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		err = a.stream.Stop()
	})
	return err
}

// updateFrequencyData must be called with a.mu held.
func (a *Analyser) updateFrequencyData() {
	n := a.fftSize
	for i := 0; i < n; i++ {
		a.scratch[i] = float64(a.ring[(a.pos+i)%n]) * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.scratch)

	scale := 255 / (a.maxDB - a.minDB)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / float64(n)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		if a.smoothed[k] <= 0 {
			a.freq[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		v := math.Floor(scale * (db - a.minDB))
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		a.freq[k] = byte(v)
	}
}

// LevelFromSpectrum maps a byte spectrum onto the 0..100 volume scale:
// the mean bin value times VolumeScale, rounded and clamped to 100.
func LevelFromSpectrum(freq []byte) int {
	if len(freq) == 0 {
		return 0
	}
	var sum int
	for _, b := range freq {
		sum += int(b)
	}
	level := math.Round(float64(sum) / float64(len(freq)) * VolumeScale)
	if level > 100 {
		return 100
	}
	return int(level)
}

func blackman(n int) []float64 {
	const alpha = 0.16
	a0 := (1 - alpha) / 2
	a1 := 0.5
	a2 := alpha / 2
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}
