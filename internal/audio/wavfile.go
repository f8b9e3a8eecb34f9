package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// WAVSource replays a WAV file as if it were a live microphone.
// The playback position follows the wall clock from StartRecording, so a
// window always holds the audio "heard" during the last WindowSamples.
// Past the end of the file the source delivers silence.
type WAVSource struct {
	samples    []int16
	sampleRate int
	now        func() time.Time
	mu         sync.Mutex
	started    time.Time
	recording  bool
	released   bool
}

// WAVOpener opens WAVSource instances for a file on fs
type WAVOpener struct {
	Fs   afero.Fs
	Path string
}

// Open implements Opener
func (o WAVOpener) Open(format Format) (Source, error) {
	return NewWAVSource(o.Fs, o.Path, format)
}

// NewWAVSource decodes path and checks it matches format.
// Multi-channel files are reduced to their first channel.
func NewWAVSource(fs afero.Fs, path string, format Format) (*WAVSource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file: %s", path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file: %w", err)
	}

	if format.SampleRate > 0 && buf.Format.SampleRate != format.SampleRate {
		return nil, fmt.Errorf("sample rate mismatch: file has %d Hz, model expects %d Hz",
			buf.Format.SampleRate, format.SampleRate)
	}

	return &WAVSource{
		samples:    toMono16(buf),
		sampleRate: buf.Format.SampleRate,
		now:        time.Now,
	}, nil
}

// toMono16 keeps the first channel and rescales to 16-bit
func toMono16(buf *audio.IntBuffer) []int16 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		v := buf.Data[i*channels]
		switch {
		case depth > 16:
			v >>= uint(depth - 16)
		case depth < 16:
			v <<= uint(16 - depth)
		}
		out[i] = int16(v)
	}
	return out
}

// Duration returns the playback length of the file
func (s *WAVSource) Duration() time.Duration {
	if s.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(s.samples)) * time.Second / time.Duration(s.sampleRate)
}

// State implements Source
func (s *WAVSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return NotReady
	}
	return Ready
}

// StartRecording starts playback from the beginning of the file
func (s *WAVSource) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return fmt.Errorf("source not ready")
	}
	if s.recording {
		return fmt.Errorf("already recording")
	}

	s.started = s.now()
	s.recording = true
	return nil
}

// LoadWindow implements Source
func (s *WAVSource) LoadWindow(dst []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.recording {
		return 0, ErrNotRecording
	}

	elapsed := s.now().Sub(s.started)
	pos := int(elapsed * time.Duration(s.sampleRate) / time.Second)

	// dst ends at pos; everything outside [0, len(samples)) is silence
	start := pos - len(dst)
	loaded := 0
	for i := range dst {
		idx := start + i
		if idx >= 0 && idx < len(s.samples) {
			dst[i] = s.samples[idx]
			loaded++
		} else {
			dst[i] = 0
		}
	}
	return loaded, nil
}

// Stop pauses playback. Stopping a stopped source is a no-op.
func (s *WAVSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false
	return nil
}

// Release drops the decoded samples. Safe to call twice.
func (s *WAVSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recording = false
	s.released = true
	s.samples = nil
	return nil
}
