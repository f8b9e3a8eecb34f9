package interpreter

import (
	"errors"

	"github.com/yok-tottii/cry-interpreter/internal/classifier"
)

var (
	// ErrResource means the audio device is unavailable, not initialized, or not authorized
	ErrResource = errors.New("audio resource unavailable")

	// ErrModelLoad means the classifier could not be built from its artifact
	ErrModelLoad = classifier.ErrModelLoad

	// ErrTick wraps a failure inside a single tick. It is reported, never returned.
	ErrTick = errors.New("tick failed")

	// ErrAlreadyRunning is returned by Start on a running loop
	ErrAlreadyRunning = errors.New("already running")
)
