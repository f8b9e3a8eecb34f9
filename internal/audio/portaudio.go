package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource implements Source on a PortAudio input stream.
// The stream callback feeds a ring buffer sized to one classification window.
type PortAudioSource struct {
	config    Config
	format    Format
	stream    *portaudio.Stream
	ring      *RingBuffer
	mu        sync.Mutex
	recording bool
	released  bool
}

// PortAudioOpener opens microphone sources with a fixed device configuration
type PortAudioOpener struct {
	Config Config
}

// Open implements Opener
func (o PortAudioOpener) Open(format Format) (Source, error) {
	s, err := NewPortAudioSource(o.Config, format)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPortAudioSource initializes PortAudio and opens an input stream for format.
// It returns an error, and no source, when the device or stream cannot be opened.
func NewPortAudioSource(config Config, format Format) (*PortAudioSource, error) {
	if format.WindowSamples <= 0 {
		return nil, fmt.Errorf("invalid window size: %d", format.WindowSamples)
	}
	if format.Channels <= 0 {
		format.Channels = 1
	}

	// Initialize PortAudio
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	s := &PortAudioSource{
		config: config,
		format: format,
		ring:   NewRingBuffer(format.WindowSamples * format.Channels),
	}

	stream, err := s.openStream()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream

	return s, nil
}

// openStream resolves the configured device and opens the input stream
func (s *PortAudioSource) openStream() (*portaudio.Stream, error) {
	device, err := resolveDevice(s.config.DeviceID)
	if err != nil {
		return nil, err
	}

	// Validate device has input channels
	if device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("selected device '%s' (ID: %d) has no input channels (output-only device)",
			device.Name, s.config.DeviceID)
	}

	var latency time.Duration
	switch s.config.Latency {
	case LowLatency:
		latency = device.DefaultLowInputLatency
	default:
		latency = device.DefaultHighInputLatency
	}

	streamParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: s.format.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(s.format.SampleRate),
		FramesPerBuffer: 1024,
	}

	stream, err := portaudio.OpenStream(streamParams, s.callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return stream, nil
}

func resolveDevice(id int) (*portaudio.DeviceInfo, error) {
	if id == -1 {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if id < 0 || id >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", id)
	}
	return devices[id], nil
}

// callback is called by PortAudio when audio data is available
func (s *PortAudioSource) callback(in []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording {
		s.ring.Add(in)
	}
}

// State implements Source
func (s *PortAudioSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.released {
		return NotReady
	}
	return Ready
}

// StartRecording starts the input stream
func (s *PortAudioSource) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.released {
		return fmt.Errorf("source not ready")
	}
	if s.recording {
		return fmt.Errorf("already recording")
	}

	s.ring.Clear()

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	s.recording = true
	return nil
}

// LoadWindow implements Source
func (s *PortAudioSource) LoadWindow(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.recording {
		return 0, ErrNotRecording
	}
	return s.ring.ReadInto(dst), nil
}

// Stop stops the input stream. Stopping a stopped source is a no-op.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return nil
	}
	s.recording = false
	stream := s.stream
	s.mu.Unlock()

	// Stop outside the lock: PortAudio waits for the callback to return
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	return nil
}

// Release closes the stream and terminates PortAudio. Safe to call twice.
func (s *PortAudioSource) Release() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			return fmt.Errorf("failed to close stream: %w", err)
		}
		s.stream = nil
	}

	// Terminate PortAudio
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// ListDevices returns the available audio input devices
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// If we can't get the default device, continue without marking any as default
		defaultInput = nil
	}

	var result []Device
	for i, dev := range devices {
		// Only include devices with input channels
		if dev.MaxInputChannels <= 0 {
			continue
		}
		result = append(result, Device{
			ID:        i,
			Name:      dev.Name,
			IsDefault: defaultInput != nil && dev.Name == defaultInput.Name,
		})
	}

	return result, nil
}
