// Package classifier adapts packaged audio classification models to the
// interpreter. The model is an opaque artifact loaded by path; this package
// only moves samples in and (label, score) pairs out.
package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
)

// ErrModelLoad is returned when a classifier cannot be built from its artifact
var ErrModelLoad = errors.New("model load failed")

// Category is one (label, score) pair produced by a classifier.
// Score is in [0,1].
type Category struct {
	Label string
	Score float64
}

// Classifications is one result set for one classifier head
type Classifications struct {
	HeadIndex  int
	HeadName   string
	Categories []Category
}

// Classifier is the interface for audio classification
type Classifier interface {
	// Format returns the input format the model dictates
	Format() audio.Format

	// Labels returns the model's output labels in model order
	Labels() []string

	// Classify runs the model on one window of samples
	Classify(ctx context.Context, window []int16) ([]Classifications, error)

	// Close releases the model
	Close() error
}

// IsValidModelExtension checks if the file has a supported model extension
func IsValidModelExtension(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".eim"
}

// GetDefaultModelPath returns the default directory for model files
func GetDefaultModelPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(homeDir, ".config", "cry-interpreter", "models")
}
