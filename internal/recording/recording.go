// Package recording drives the listening session: it gates the sampling
// loop on microphone authorization and turns UI and hotkey requests into
// loop starts and stops.
package recording

import (
	"fmt"
	"sync"

	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
	"github.com/yok-tottii/cry-interpreter/internal/permissions"
)

// ErrUnauthorized is returned by Start while microphone access is missing.
// It matches interpreter.ErrResource.
var ErrUnauthorized = fmt.Errorf("%w: microphone access not authorized", interpreter.ErrResource)

// State represents the current session state
type State int

const (
	// Unauthorized means microphone access has not been granted
	Unauthorized State = iota
	// Idle means authorized and not listening
	Idle
	// Running means the sampling loop is active
	Running
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Unauthorized:
		return "Unauthorized"
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// Loop is the sampling loop controlled by the manager
type Loop interface {
	Start() error
	Stop() error
}

// Logger is the subset of logger.Logger used by the manager
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Config holds configuration for the session manager
type Config struct {
	Logger Logger
	// OnError receives failures of event-driven transitions (hotkey, revocation)
	OnError func(err error)
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{Logger: nopLogger{}}
}

// Manager owns the session state and is the only caller of the loop
type Manager struct {
	state     State
	loop      Loop
	auth      permissions.Authorizer
	logger    Logger
	onError   func(err error)
	listeners []func(State)
	mu        sync.Mutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
	watching  bool
}

// New creates a session manager. The initial state follows the current authorization.
func New(loop Loop, auth permissions.Authorizer, config Config) *Manager {
	if config.Logger == nil {
		config.Logger = nopLogger{}
	}

	state := Unauthorized
	if auth.MicrophoneStatus() == permissions.PermissionAuthorized {
		state = Idle
	}

	return &Manager{
		state:   state,
		loop:    loop,
		auth:    auth,
		logger:  config.Logger,
		onError: config.OnError,
	}
}

// OnStateChange registers fn to be called after every transition
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// GetState returns the current session state
func (m *Manager) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// setState must be called with m.mu held. The returned func notifies
// listeners and must be called after unlocking.
func (m *Manager) setState(s State) func() {
	if m.state == s {
		return func() {}
	}
	m.logger.Info("Session %s -> %s", m.state, s)
	m.state = s

	listeners := append([]func(State){}, m.listeners...)
	return func() {
		for _, fn := range listeners {
			fn(s)
		}
	}
}

// Start begins listening. While unauthorized it checks authorization
// again and asks the user for access when it is still missing.
func (m *Manager) Start() error {
	m.mu.Lock()
	notify, err := m.start()
	m.mu.Unlock()

	notify()
	return err
}

func (m *Manager) start() (func(), error) {
	notify := func() {}

	switch m.state {
	case Running:
		return notify, nil
	case Unauthorized:
		status := m.auth.MicrophoneStatus()
		if status != permissions.PermissionAuthorized {
			if err := m.auth.RequestMicrophone(); err != nil {
				m.logger.Warn("Failed to request microphone access: %v", err)
			}
			return notify, fmt.Errorf("%w (%s)", ErrUnauthorized, status)
		}
		notify = m.setState(Idle)
	}

	if err := m.loop.Start(); err != nil {
		return notify, fmt.Errorf("failed to start listening: %w", err)
	}

	next := m.setState(Running)
	return func() { notify(); next() }, nil
}

// Stop stops listening. It is a no-op unless running.
func (m *Manager) Stop() error {
	m.mu.Lock()
	notify, err := m.stop(Idle)
	m.mu.Unlock()

	notify()
	return err
}

func (m *Manager) stop(next State) (func(), error) {
	var err error
	if m.state == Running {
		if stopErr := m.loop.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop listening: %w", stopErr)
		}
	}
	if m.state == Running || next == Unauthorized {
		return m.setState(next), err
	}
	return func() {}, err
}

// Toggle starts when idle and stops when running
func (m *Manager) Toggle() error {
	if m.GetState() == Running {
		return m.Stop()
	}
	return m.Start()
}

// Authorize applies an authorization change. Losing access stops the loop.
func (m *Manager) Authorize(status permissions.PermissionStatus) error {
	m.mu.Lock()
	var notify func()
	var err error

	if status == permissions.PermissionAuthorized {
		notify = func() {}
		if m.state == Unauthorized {
			notify = m.setState(Idle)
		}
	} else {
		notify, err = m.stop(Unauthorized)
	}
	m.mu.Unlock()

	notify()
	return err
}

// Watch handles toggle requests (e.g. hotkey presses) and authorization
// changes until Close. Either channel may be nil.
func (m *Manager) Watch(toggles <-chan struct{}, auth <-chan permissions.PermissionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}
	m.watching = true
	m.stopChan = make(chan struct{})

	m.wg.Add(1)
	go m.handleEvents(toggles, auth, m.stopChan)
}

func (m *Manager) handleEvents(toggles <-chan struct{}, auth <-chan permissions.PermissionStatus, stop <-chan struct{}) {
	defer m.wg.Done()

	for toggles != nil || auth != nil {
		select {
		case _, ok := <-toggles:
			if !ok {
				toggles = nil
				continue
			}
			m.report(m.Toggle())

		case status, ok := <-auth:
			if !ok {
				auth = nil
				continue
			}
			m.report(m.Authorize(status))

		case <-stop:
			return
		}
	}
}

func (m *Manager) report(err error) {
	if err == nil {
		return
	}
	m.logger.Error("%v", err)
	if m.onError != nil {
		m.onError(err)
	}
}

// Close stops watching events and stops the loop if it is running
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.watching {
		close(m.stopChan)
		m.watching = false
	}
	m.mu.Unlock()

	m.wg.Wait()

	return m.Stop()
}
