package classifier

import (
	"context"
	"fmt"
	"sort"
	"sync"

	edgeimpulse "github.com/edgeimpulse/linux-sdk-go"
	"github.com/spf13/afero"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
)

// runner is the part of an Edge Impulse model process the classifier needs
type runner interface {
	Classify(data []float64) (map[string]float64, error)
	Close() error
}

// processRunner adapts *edgeimpulse.RunnerProcess to runner
type processRunner struct {
	process *edgeimpulse.RunnerProcess
}

func (r processRunner) Classify(data []float64) (map[string]float64, error) {
	resp, err := r.process.Classify(data)
	if err != nil {
		return nil, err
	}
	return resp.Result.Classification, nil
}

func (r processRunner) Close() error {
	return r.process.Close()
}

// EdgeImpulse implements Classifier on an Edge Impulse model process (.eim).
// Calls to Classify are serialized; the model process handles one request at a time.
type EdgeImpulse struct {
	runner runner
	format audio.Format
	labels []string
	name   string
	mu     sync.Mutex
	closed bool
}

// LoadEdgeImpulse starts the model process for modelPath.
// All failures wrap ErrModelLoad.
func LoadEdgeImpulse(fs afero.Fs, modelPath string) (*EdgeImpulse, error) {
	info, err := fs.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: model file not found: %s", ErrModelLoad, modelPath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: model path is a directory: %s", ErrModelLoad, modelPath)
	}

	process, err := edgeimpulse.NewRunnerProcess(modelPath, &edgeimpulse.RunnerOpts{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	params := process.ModelParameters()
	c, err := newEdgeImpulse(processRunner{process: process}, int(params.Frequency), params.InputFeaturesCount, params.Labels)
	if err != nil {
		process.Close()
		return nil, err
	}
	c.name = modelPath
	return c, nil
}

func newEdgeImpulse(r runner, sampleRate, windowSamples int, labels []string) (*EdgeImpulse, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: model is not an audio model (frequency %d)", ErrModelLoad, sampleRate)
	}
	if windowSamples <= 0 {
		return nil, fmt.Errorf("%w: model has no input features", ErrModelLoad)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: model has no labels", ErrModelLoad)
	}

	return &EdgeImpulse{
		runner: r,
		format: audio.Format{
			SampleRate:    sampleRate,
			Channels:      1,
			WindowSamples: windowSamples,
		},
		labels: append([]string(nil), labels...),
	}, nil
}

// Format implements Classifier
func (c *EdgeImpulse) Format() audio.Format {
	return c.format
}

// Labels implements Classifier
func (c *EdgeImpulse) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Classify implements Classifier. Raw 16-bit sample values are the model's features.
func (c *EdgeImpulse) Classify(ctx context.Context, window []int16) ([]Classifications, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(window) != c.format.WindowSamples {
		return nil, fmt.Errorf("window has %d samples, model expects %d", len(window), c.format.WindowSamples)
	}

	features := make([]float64, len(window))
	for i, s := range window {
		features[i] = float64(s)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("classifier closed")
	}

	scores, err := c.runner.Classify(features)
	if err != nil {
		return nil, fmt.Errorf("classify failed: %w", err)
	}

	return []Classifications{{
		HeadIndex:  0,
		HeadName:   c.name,
		Categories: orderedCategories(c.labels, scores),
	}}, nil
}

// orderedCategories lists scores in model label order; labels the model
// did not announce follow in lexical order so output is deterministic.
func orderedCategories(labels []string, scores map[string]float64) []Category {
	categories := make([]Category, 0, len(scores))
	seen := make(map[string]bool, len(labels))

	for _, label := range labels {
		if score, ok := scores[label]; ok {
			categories = append(categories, Category{Label: label, Score: score})
			seen[label] = true
		}
	}

	var extra []string
	for label := range scores {
		if !seen[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		categories = append(categories, Category{Label: label, Score: scores[label]})
	}

	return categories
}

// Close stops the model process. Safe to call twice.
func (c *EdgeImpulse) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.runner.Close()
}
