package audio

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"
)

// writeFixture writes a mono 16-bit ramp of n samples to path
func writeFixture(t *testing.T, fs afero.Fs, path string, sampleRate, n int) {
	t.Helper()

	f, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}

	w, err := wave.NewWriter(wave.WriterParam{
		Out:           f,
		Channel:       1,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		t.Fatalf("Failed to create wav writer: %v", err)
	}

	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 30000)
	}
	if _, err := w.WriteSample16(samples); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close wav writer: %v", err)
	}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestWAVSource_Windows(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/cry.wav", 16000, 16000)

	format := Format{SampleRate: 16000, Channels: 1, WindowSamples: 4000}
	source, err := NewWAVSource(fs, "/cry.wav", format)
	if err != nil {
		t.Fatalf("NewWAVSource failed: %v", err)
	}
	defer source.Release()

	if got := source.Duration(); got != time.Second {
		t.Errorf("Expected duration 1s, got %v", got)
	}

	clock := &fakeClock{t: time.Unix(1000, 0)}
	source.now = clock.Now

	if err := source.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}

	window := make([]int16, format.WindowSamples)

	// 100ms in: only 1600 samples heard, the rest is leading silence
	clock.t = clock.t.Add(100 * time.Millisecond)
	n, err := source.LoadWindow(window)
	if err != nil {
		t.Fatalf("LoadWindow failed: %v", err)
	}
	if n != 1600 {
		t.Errorf("Expected 1600 loaded samples, got %d", n)
	}
	if window[0] != 0 || window[2399] != 0 {
		t.Error("Expected leading silence")
	}
	if window[2400] != 0 || window[3999] != 1599 {
		t.Errorf("Expected ramp 0..1599 at the end, got %d..%d", window[2400], window[3999])
	}

	// 500ms in: a full window of samples 4000..7999
	clock.t = clock.t.Add(400 * time.Millisecond)
	n, err = source.LoadWindow(window)
	if err != nil {
		t.Fatalf("LoadWindow failed: %v", err)
	}
	if n != format.WindowSamples {
		t.Errorf("Expected full window, got %d", n)
	}
	if window[0] != 4000 || window[3999] != 7999 {
		t.Errorf("Expected samples 4000..7999, got %d..%d", window[0], window[3999])
	}

	// Past the end of the file: silence
	clock.t = clock.t.Add(2 * time.Second)
	n, err = source.LoadWindow(window)
	if err != nil {
		t.Fatalf("LoadWindow failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no samples past the end, got %d", n)
	}
}

func TestWAVSource_SampleRateMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/cry.wav", 8000, 800)

	_, err := NewWAVSource(fs, "/cry.wav", Format{SampleRate: 16000, Channels: 1, WindowSamples: 100})
	if err == nil {
		t.Error("Expected error for sample rate mismatch")
	}
}

func TestWAVSource_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	opener := WAVOpener{Fs: fs, Path: "/missing.wav"}
	if _, err := opener.Open(testFormat()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestWAVSource_InvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/bad.wav", []byte("not a wav file"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewWAVSource(fs, "/bad.wav", testFormat()); err == nil {
		t.Error("Expected error for invalid wav file")
	}
}

func TestWAVSource_Lifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "/cry.wav", 16000, 1600)

	source, err := WAVOpener{Fs: fs, Path: "/cry.wav"}.Open(testFormat())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if source.State() != Ready {
		t.Errorf("Expected Ready, got %v", source.State())
	}
	if _, err := source.LoadWindow(make([]int16, 10)); err != ErrNotRecording {
		t.Errorf("Expected ErrNotRecording, got %v", err)
	}
	if err := source.StartRecording(); err != nil {
		t.Fatalf("StartRecording failed: %v", err)
	}
	if err := source.StartRecording(); err == nil {
		t.Error("Expected error when already recording")
	}
	if err := source.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := source.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
	if err := source.Release(); err != nil {
		t.Errorf("Second Release failed: %v", err)
	}
	if source.State() != NotReady {
		t.Errorf("Expected NotReady after Release, got %v", source.State())
	}
	if err := source.StartRecording(); err == nil {
		t.Error("Expected error starting a released source")
	}
}
