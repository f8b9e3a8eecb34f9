package audio

import "errors"

// ErrNotRecording is returned when a window is requested from a source that is not recording
var ErrNotRecording = errors.New("not recording")

// Device represents an audio input device
type Device struct {
	ID        int
	Name      string
	IsDefault bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// Config holds device selection for microphone input
type Config struct {
	DeviceID int
	Latency  LatencyMode
}

// DefaultConfig returns the default audio configuration
// Device: system default
// Latency: HighStability
func DefaultConfig() Config {
	return Config{
		DeviceID: -1, // -1 means use default device
		Latency:  HighStability,
	}
}

// Format is the sample layout a classifier consumes.
// Samples are 16-bit signed PCM.
type Format struct {
	SampleRate    int
	Channels      int
	WindowSamples int // samples per classification window
}

// State reports whether a source can deliver audio
type State int

const (
	// NotReady means the device could not be initialized or was released
	NotReady State = iota
	// Ready means the device is initialized and can start recording
	Ready
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case NotReady:
		return "NotReady"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Source is a recording input that keeps the newest window of samples available.
// A Source is owned by a single caller; only LoadWindow may race with the
// device callback and implementations guard it internally.
type Source interface {
	// State returns whether the source is initialized
	State() State

	// StartRecording starts capturing samples
	StartRecording() error

	// LoadWindow copies the newest len(dst) samples into dst, oldest first.
	// It returns how many of them were actually recorded; the rest are silence.
	LoadWindow(dst []int16) (int, error)

	// Stop stops capturing
	Stop() error

	// Release frees the underlying device. The source cannot be used afterwards.
	Release() error
}

// Opener opens a Source for the given format
type Opener interface {
	Open(format Format) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(format Format) (Source, error)

// Open calls f(format)
func (f OpenerFunc) Open(format Format) (Source, error) {
	return f(format)
}
