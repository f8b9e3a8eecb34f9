package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
	"github.com/yok-tottii/cry-interpreter/internal/classifier"
	"github.com/yok-tottii/cry-interpreter/internal/config"
	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
	"github.com/yok-tottii/cry-interpreter/internal/logger"
)

// session holds what every listening command needs
type session struct {
	configPath    string
	config        *config.Config
	logger        *logger.Logger
	labels        interpreter.LabelSet
	classifier    classifier.Classifier
	classifierErr error
}

// loadConfig loads and validates the config file
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// openSession loads the config and starts a session on it
func openSession(configPath string, console bool) (*session, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newSession(configPath, cfg, console)
}

// newSession starts the logger and loads the model. A model that fails to
// load is not fatal here: the loop reports it on Start so the tray can stay
// up and tell the user. With console set, log entries are mirrored to stderr.
func newSession(configPath string, cfg *config.Config, console bool) (*session, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logConfig := logger.DefaultConfig()
	logConfig.Level = level
	logConfig.Console = console

	log, err := logger.New(logConfig)
	if err != nil {
		return nil, err
	}

	labels, err := interpreter.NewLabelSet(cfg.Labels...)
	if err != nil {
		log.Close()
		return nil, err
	}

	s := &session{
		configPath: configPath,
		config:     cfg,
		logger:     log,
		labels:     labels,
	}

	log.Info("cry-interpreter v%s (config %s)", version, configPath)
	s.loadClassifier()

	return s, nil
}

func (s *session) loadClassifier() {
	fs := afero.NewOsFs()

	if err := s.config.ValidateModelPath(fs); err != nil {
		s.classifierErr = fmt.Errorf("%w: %v", classifier.ErrModelLoad, err)
		s.logger.Warn("Model not loaded: %v", err)
		return
	}

	modelPath, err := s.config.GetModelPath()
	if err != nil {
		s.classifierErr = fmt.Errorf("%w: %v", classifier.ErrModelLoad, err)
		s.logger.Warn("Model not loaded: %v", err)
		return
	}

	s.logger.Info("Loading model: %s", modelPath)
	clf, err := classifier.LoadEdgeImpulse(fs, modelPath)
	if err != nil {
		s.classifierErr = err
		s.logger.Error("Failed to load model: %v", err)
		return
	}
	s.classifier = clf

	format := clf.Format()
	s.logger.WithFields(map[string]interface{}{
		"sample_rate": format.SampleRate,
		"window":      format.WindowSamples,
		"labels":      strings.Join(clf.Labels(), ","),
	}).Info("Model loaded")

	// Model labels outside the label set never reach the chart
	for _, label := range clf.Labels() {
		if s.labels.IndexOf(label) < 0 {
			s.logger.Debug("Model label %q is not in the label set and will be ignored", label)
		}
	}
}

// loopConfig builds the loop configuration for opener and sink
func (s *session) loopConfig(opener audio.Opener, sink interpreter.Sink) interpreter.Config {
	return interpreter.Config{
		Classifier:    s.classifier,
		ClassifierErr: s.classifierErr,
		Opener:        opener,
		Labels:        s.labels,
		Threshold:     s.config.Threshold,
		Interval:      s.config.Interval(),
		Sink:          sink,
		Logger:        s.logger,
	}
}

func (s *session) modelPath() string {
	path, err := s.config.GetModelPath()
	if err != nil || path == "" {
		return s.config.ModelPath
	}
	return path
}

// Close releases the model and closes the log file
func (s *session) Close() {
	if s.classifier != nil {
		if err := s.classifier.Close(); err != nil {
			s.logger.Warn("Failed to close model: %v", err)
		}
	}
	s.logger.Close()
}
