package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lokutor-ai/delivery-coach/pkg/audio"
)

// Sampler is the per-session audio graph the controller reads frames from.
// *audio.Analyser satisfies it.
type Sampler interface {
	Volume() (int, error)
	Waveform() ([]byte, error)
	SampleRate() int
	Close() error
}

// OpenFunc builds a Sampler over a stream
type OpenFunc func(stream audio.Stream, cfg Config) (Sampler, error)

// Ticker paces the sampling loop
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d
type TickerFunc func(d time.Duration) Ticker

// OpenAnalyser is the default OpenFunc: an FFT analyser sized from cfg.
func OpenAnalyser(stream audio.Stream, cfg Config) (Sampler, error) {
	a, err := audio.Open(stream,
		audio.WithFFTSize(cfg.FFTSize),
		audio.WithSmoothing(cfg.Smoothing),
		audio.WithSampleRate(cfg.SampleRate),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default TickerFunc, backed by time.Ticker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Controller owns one analysis session at a time: it opens the sampler,
// runs the sampling loop and publishes throttled VoiceMetrics snapshots.
type Controller struct {
	cfg       Config
	logger    Logger
	telemetry Telemetry
	open      OpenFunc
	newTicker TickerFunc
	now       func() time.Time

	// opMu serialises Start, Stop and Close
	opMu sync.Mutex

	mu      sync.Mutex
	current *run
	last    VoiceMetrics
	closed  bool

	updates chan VoiceMetrics
}

// run is the state of one session. The session itself is only touched by
// the loop goroutine until done is closed.
type run struct {
	id      string
	session *Session
	sampler Sampler
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// stopped is closed once the run has been detached from the controller
	stopped chan struct{}
}

type ControllerOption func(*Controller)

func WithConfig(cfg Config) ControllerOption {
	return func(c *Controller) { c.cfg = cfg }
}

func WithLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithTelemetry(t Telemetry) ControllerOption {
	return func(c *Controller) {
		if t != nil {
			c.telemetry = t
		}
	}
}

// WithOpener replaces the sampler factory
func WithOpener(open OpenFunc) ControllerOption {
	return func(c *Controller) {
		if open != nil {
			c.open = open
		}
	}
}

// WithTicker replaces the tick source
func WithTicker(f TickerFunc) ControllerOption {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithClock sets the clock used to stamp session start
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an idle controller
func New(opts ...ControllerOption) *Controller {
	c := &Controller{
		cfg:       DefaultConfig(),
		logger:    &NoOpLogger{},
		telemetry: NoOpTelemetry{},
		open:      OpenAnalyser,
		newTicker: NewTimeTicker,
		now:       time.Now,
		updates:   make(chan VoiceMetrics, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resets all session state, opens the sampler over stream and begins
// sampling. Starting while a session is running stops that session first.
// Cancelling ctx ends the session as Stop would; its final metrics remain
// available from Metrics and from a later Stop. Sampler failures are
// returned as *AudioInitError.
func (c *Controller) Start(ctx context.Context, stream audio.Stream) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	closed, prev := c.closed, c.current
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if stream == nil {
		return ErrNilStream
	}
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if prev != nil {
		c.logger.Warn("start while analyzing, stopping previous session", "session_id", prev.id)
		if _, err := c.stopLocked(); err != nil {
			c.logger.Warn("previous session stopped with error", "session_id", prev.id, "error", err)
		}
	}

	sampler, err := c.open(stream, c.cfg)
	if err != nil {
		c.logger.Error("failed to open audio sampler", "error", err)
		return err
	}

	cfg := c.cfg
	if rate := sampler.SampleRate(); rate > 0 {
		cfg.SampleRate = rate
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r := &run{
		id:      uuid.NewString(),
		session: NewSession(cfg, c.now()),
		sampler: sampler,
		ctx:     context.WithoutCancel(ctx),
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	c.mu.Lock()
	c.current = r
	c.last = VoiceMetrics{}
	c.mu.Unlock()
	c.drainUpdates()

	ticker := c.newTicker(cfg.TickInterval)
	go c.loop(loopCtx, r, ticker)
	if ctx.Done() != nil {
		go c.stopOnCancel(ctx, r)
	}

	c.telemetry.SessionStarted(r.ctx, r.id)
	c.logger.Info("analysis started", "session_id", r.id, "sample_rate", cfg.SampleRate)
	return nil
}

// Stop ends the session, releases the sampler and returns the final
// metrics. With no session running it returns the last known metrics. A
// release failure is returned alongside valid metrics.
func (c *Controller) Stop() (VoiceMetrics, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stopLocked()
}

// stopLocked must be called with opMu held.
func (c *Controller) stopLocked() (VoiceMetrics, error) {
	c.mu.Lock()
	r := c.current
	c.current = nil
	last := c.last
	c.mu.Unlock()

	if r == nil {
		return last, nil
	}

	close(r.stopped)
	r.cancel()
	<-r.done

	final := r.session.Snapshot()
	c.mu.Lock()
	c.last = final
	c.mu.Unlock()

	var err error
	if cerr := r.sampler.Close(); cerr != nil {
		c.logger.Warn("failed to release audio sampler", "session_id", r.id, "error", cerr)
		c.telemetry.ReleaseFailed(r.ctx, r.id)
		err = fmt.Errorf("release audio sampler: %w", cerr)
	}

	c.telemetry.SessionStopped(r.ctx, r.id, final, r.session.Elapsed())
	c.logger.Info("analysis stopped",
		"session_id", r.id,
		"ticks", r.session.Ticks(),
		"delivery_score", final.DeliveryScore,
	)
	return final, err
}

// Metrics returns the most recently published snapshot
func (c *Controller) Metrics() VoiceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Updates delivers published snapshots. Only the newest undelivered
// snapshot is kept; slow readers miss intermediate ones.
func (c *Controller) Updates() <-chan VoiceMetrics {
	return c.updates
}

func (c *Controller) Analyzing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// SessionID returns the identifier of the running session
func (c *Controller) SessionID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", ErrNotAnalyzing
	}
	return c.current.id, nil
}

// Close stops any running session and closes the Updates channel. The
// controller cannot be started again.
func (c *Controller) Close() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	_, err := c.stopLocked()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	close(c.updates)
	return err
}

// stopOnCancel ends r when the context it was started with is cancelled,
// unless r has already been stopped.
func (c *Controller) stopOnCancel(ctx context.Context, r *run) {
	select {
	case <-ctx.Done():
	case <-r.stopped:
		return
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	current := c.current == r
	c.mu.Unlock()
	if !current {
		return
	}

	c.logger.Info("start context cancelled, stopping session", "session_id", r.id)
	if _, err := c.stopLocked(); err != nil {
		c.logger.Warn("session stopped with error", "session_id", r.id, "error", err)
	}
}

func (c *Controller) loop(ctx context.Context, r *run, ticker Ticker) {
	defer close(r.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			c.tick(r, now)
		}
	}
}

func (c *Controller) tick(r *run, now time.Time) {
	frame, err := c.readFrame(r, now)
	if err != nil {
		c.logger.Debug("skipping tick", "session_id", r.id, "error", err)
		c.telemetry.TickSkipped(r.ctx, r.id)
		return
	}

	r.session.Observe(frame)
	if r.session.Ticks()%r.session.cfg.PublishEvery != 0 {
		return
	}

	m := r.session.Snapshot()
	c.mu.Lock()
	c.last = m
	c.mu.Unlock()
	c.publish(m)
}

// readFrame samples the audio graph. A panicking sampler is treated like a
// failed read so one bad frame cannot end the session.
func (c *Controller) readFrame(r *run, now time.Time) (f Frame, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sampler panic: %v", p)
		}
	}()

	vol, err := r.sampler.Volume()
	if err != nil {
		return Frame{}, fmt.Errorf("read volume: %w", err)
	}
	f = Frame{Volume: vol, Time: now}

	if r.session.WantsPitch(vol) {
		wf, err := r.sampler.Waveform()
		if err != nil {
			return Frame{}, fmt.Errorf("read waveform: %w", err)
		}
		f.Waveform = wf
	}
	return f, nil
}

func (c *Controller) publish(m VoiceMetrics) {
	select {
	case c.updates <- m:
		return
	default:
	}
	// replace the stale snapshot
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- m:
	default:
	}
}

func (c *Controller) drainUpdates() {
	for {
		select {
		case <-c.updates:
		default:
			return
		}
	}
}
