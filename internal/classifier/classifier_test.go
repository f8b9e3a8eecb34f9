package classifier

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

type fakeRunner struct {
	scores   map[string]float64
	err      error
	features []float64
	closed   int
}

func (r *fakeRunner) Classify(data []float64) (map[string]float64, error) {
	r.features = data
	return r.scores, r.err
}

func (r *fakeRunner) Close() error {
	r.closed++
	return nil
}

var cryLabels = []string{"belly_pain", "burping", "discomfort", "hungry", "tired"}

func TestIsValidModelExtension(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"model.eim", true},
		{"MODEL.EIM", true},
		{"model.tflite", false},
		{"model", false},
	}

	for _, tt := range tests {
		if got := IsValidModelExtension(tt.path); got != tt.expected {
			t.Errorf("IsValidModelExtension(%q): expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}

func TestGetDefaultModelPath(t *testing.T) {
	modelPath := GetDefaultModelPath()
	if modelPath == "" {
		t.Skip("home directory not available")
	}
	if !filepath.IsAbs(modelPath) {
		t.Errorf("Expected absolute path, got %s", modelPath)
	}
}

func TestNewEdgeImpulse_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		sampleRate    int
		windowSamples int
		labels        []string
	}{
		{"not audio", 0, 16000, cryLabels},
		{"no features", 16000, 0, cryLabels},
		{"no labels", 16000, 16000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEdgeImpulse(&fakeRunner{}, tt.sampleRate, tt.windowSamples, tt.labels)
			if !errors.Is(err, ErrModelLoad) {
				t.Errorf("Expected ErrModelLoad, got %v", err)
			}
		})
	}
}

func TestEdgeImpulse_Format(t *testing.T) {
	c, err := newEdgeImpulse(&fakeRunner{}, 16000, 16000, cryLabels)
	if err != nil {
		t.Fatalf("newEdgeImpulse failed: %v", err)
	}

	format := c.Format()
	if format.SampleRate != 16000 || format.Channels != 1 || format.WindowSamples != 16000 {
		t.Errorf("Unexpected format: %+v", format)
	}

	labels := c.Labels()
	labels[0] = "changed"
	if c.Labels()[0] != "belly_pain" {
		t.Error("Labels should return a copy")
	}
}

func TestEdgeImpulse_Classify(t *testing.T) {
	runner := &fakeRunner{scores: map[string]float64{
		"tired":      0.1,
		"hungry":     0.55,
		"zzz_extra":  0.05,
		"belly_pain": 0.2,
		"aaa_extra":  0.1,
	}}
	c, err := newEdgeImpulse(runner, 16000, 4, cryLabels)
	if err != nil {
		t.Fatalf("newEdgeImpulse failed: %v", err)
	}

	results, err := c.Classify(context.Background(), []int16{1, -2, 3, 32767})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result set, got %d", len(results))
	}

	expected := []string{"belly_pain", "hungry", "tired", "aaa_extra", "zzz_extra"}
	got := results[0].Categories
	if len(got) != len(expected) {
		t.Fatalf("Expected %d categories, got %d", len(expected), len(got))
	}
	for i, label := range expected {
		if got[i].Label != label {
			t.Errorf("Category %d: expected %s, got %s", i, label, got[i].Label)
		}
	}
	if got[1].Score != 0.55 {
		t.Errorf("Expected hungry score 0.55, got %f", got[1].Score)
	}

	if runner.features[1] != -2 || runner.features[3] != 32767 {
		t.Errorf("Features not passed as raw sample values: %v", runner.features)
	}
}

func TestEdgeImpulse_ClassifyErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("process died")}
	c, err := newEdgeImpulse(runner, 16000, 2, cryLabels)
	if err != nil {
		t.Fatalf("newEdgeImpulse failed: %v", err)
	}

	if _, err := c.Classify(context.Background(), []int16{1, 2}); err == nil {
		t.Error("Expected runner error to be returned")
	}

	if _, err := c.Classify(context.Background(), []int16{1}); err == nil {
		t.Error("Expected error for wrong window size")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Classify(ctx, []int16{1, 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEdgeImpulse_Close(t *testing.T) {
	runner := &fakeRunner{scores: map[string]float64{}}
	c, err := newEdgeImpulse(runner, 16000, 1, cryLabels)
	if err != nil {
		t.Fatalf("newEdgeImpulse failed: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if runner.closed != 1 {
		t.Errorf("Expected runner closed once, got %d", runner.closed)
	}

	if _, err := c.Classify(context.Background(), []int16{0}); err == nil {
		t.Error("Expected error classifying with a closed classifier")
	}
}

func TestLoadEdgeImpulse_MissingModel(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadEdgeImpulse(fs, "/models/cry.eim")
	if !errors.Is(err, ErrModelLoad) {
		t.Errorf("Expected ErrModelLoad, got %v", err)
	}
}

func TestLoadEdgeImpulse_Directory(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/models/cry.eim", 0755); err != nil {
		t.Fatal(err)
	}

	_, err := LoadEdgeImpulse(fs, "/models/cry.eim")
	if !errors.Is(err, ErrModelLoad) {
		t.Errorf("Expected ErrModelLoad, got %v", err)
	}
}
