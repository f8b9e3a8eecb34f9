package interpreter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
	"github.com/yok-tottii/cry-interpreter/internal/classifier"
)

// State represents the lifecycle state of a Loop
type State int

const (
	// NotStarted means Start has never succeeded
	NotStarted State = iota
	// Running means ticks are scheduled and the audio source is held
	Running
	// Stopped means the loop ran and was stopped
	Stopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DefaultInterval is the time between ticks
const DefaultInterval = time.Second

// Sink receives chart bars. Update is called from the tick goroutine and must not block for long.
type Sink interface {
	Update(entries []DisplayEntry)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(entries []DisplayEntry)

// Update implements Sink
func (f SinkFunc) Update(entries []DisplayEntry) { f(entries) }

// Logger is the subset of logger.Logger used by the loop
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Config holds the collaborators and settings of a Loop
type Config struct {
	// Classifier is the loaded model. When nil, ClassifierErr explains why.
	Classifier    classifier.Classifier
	ClassifierErr error

	Opener    audio.Opener
	Labels    LabelSet
	Threshold float64
	Interval  time.Duration
	Sink      Sink
	Logger    Logger

	// OnTickError is called with every abandoned tick, after logging
	OnTickError func(err error)
}

// DefaultConfig returns a Config with the default labels, threshold and interval
func DefaultConfig() Config {
	return Config{
		Labels:    DefaultLabels(),
		Threshold: DefaultThreshold,
		Interval:  DefaultInterval,
	}
}

// Loop periodically loads the newest audio window, classifies it and
// forwards the filtered result to its Sink.
type Loop struct {
	config Config

	mu     sync.Mutex // guards state, source, cancel and all source I/O
	state  State
	source audio.Source
	cancel context.CancelFunc

	ticks      atomic.Uint64
	tickErrors atomic.Uint64
	skipped    atomic.Uint64
}

// New creates a Loop. Missing optional settings fall back to their defaults.
func New(config Config) *Loop {
	if len(config.Labels) == 0 {
		config.Labels = DefaultLabels()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Sink == nil {
		config.Sink = SinkFunc(func([]DisplayEntry) {})
	}
	if config.Logger == nil {
		config.Logger = nopLogger{}
	}

	return &Loop{
		config: config,
		state:  NotStarted,
	}
}

// Start acquires the audio source and begins ticking.
// The first tick runs immediately, the following ones every Interval.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Running {
		return fmt.Errorf("failed to start loop: %w", ErrAlreadyRunning)
	}

	clf := l.config.Classifier
	if clf == nil {
		cause := l.config.ClassifierErr
		if cause == nil {
			cause = errors.New("no classifier configured")
		}
		if errors.Is(cause, ErrModelLoad) {
			return cause
		}
		return fmt.Errorf("%w: %v", ErrModelLoad, cause)
	}
	if l.config.Opener == nil {
		return fmt.Errorf("%w: no audio opener configured", ErrResource)
	}

	format := clf.Format()
	source, err := l.config.Opener.Open(format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}

	if st := source.State(); st != audio.Ready {
		l.release(source)
		return fmt.Errorf("%w: audio source is %s", ErrResource, st)
	}

	if err := source.StartRecording(); err != nil {
		l.release(source)
		return fmt.Errorf("%w: %v", ErrResource, err)
	}

	channels := format.Channels
	if channels <= 0 {
		channels = 1
	}
	window := make([]int16, format.WindowSamples*channels)

	ctx, cancel := context.WithCancel(context.Background())
	l.source = source
	l.cancel = cancel
	l.state = Running

	l.config.Logger.Info("Loop started (window=%d samples @ %d Hz, interval=%s)",
		len(window), format.SampleRate, l.config.Interval)

	go l.run(ctx, window)
	return nil
}

// Stop cancels the schedule and releases the audio source.
// It does not wait for an in-flight classification; its result is discarded.
// Stop is a no-op when the loop is not running.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	if l.source == nil {
		return nil
	}

	source := l.source
	l.source = nil
	l.state = Stopped

	var errs []error
	if err := source.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop audio source: %w", err))
	}
	if err := source.Release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release audio source: %w", err))
	}

	l.config.Logger.Info("Loop stopped after %d ticks (%d failed, %d skipped)",
		l.ticks.Load(), l.tickErrors.Load(), l.skipped.Load())

	return errors.Join(errs...)
}

// State returns the current state
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Labels returns a copy of the label set used for the chart axis
func (l *Loop) Labels() LabelSet {
	return append(LabelSet(nil), l.config.Labels...)
}

// TickErrors returns how many ticks were abandoned because of an error
func (l *Loop) TickErrors() uint64 {
	return l.tickErrors.Load()
}

func (l *Loop) release(source audio.Source) {
	if err := source.Release(); err != nil {
		l.config.Logger.Warn("Failed to release audio source: %v", err)
	}
}

func (l *Loop) run(ctx context.Context, window []int16) {
	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	l.tick(ctx, window)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx, window)

			// A fire that came due during the tick is dropped, not queued
			select {
			case <-ticker.C:
				l.skipped.Add(1)
			default:
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context, window []int16) {
	n := l.ticks.Add(1)

	if _, err := l.loadWindow(ctx, window); err != nil {
		if ctx.Err() == nil {
			l.tickFailed(n, fmt.Errorf("%w: load window: %v", ErrTick, err))
		}
		return
	}

	results, err := l.config.Classifier.Classify(ctx, window)
	if err != nil {
		if ctx.Err() == nil {
			l.tickFailed(n, fmt.Errorf("%w: classify: %v", ErrTick, err))
		}
		return
	}

	for _, result := range results {
		entries, ok := FilterAndMap(result.Categories, l.config.Labels, l.config.Threshold)
		if !ok {
			l.config.Logger.Debug("Tick %d: no category above %.2f", n, l.config.Threshold)
			continue
		}
		if ctx.Err() != nil {
			return
		}
		l.config.Sink.Update(entries)
	}
}

// loadWindow copies the newest audio into window unless the run was cancelled
// or the source is gone
func (l *Loop) loadWindow(ctx context.Context, window []int16) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if l.source == nil {
		return 0, audio.ErrNotRecording
	}
	return l.source.LoadWindow(window)
}

func (l *Loop) tickFailed(n uint64, err error) {
	l.tickErrors.Add(1)
	xerr := xerrors.New(err)
	l.config.Logger.Warn("Tick %d abandoned: %s", n, xerrors.Sprint(xerr))
	if l.config.OnTickError != nil {
		l.config.OnTickError(err)
	}
}
