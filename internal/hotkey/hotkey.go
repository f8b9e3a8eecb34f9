//go:build !linux || x11hotkey

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"github.com/yok-tottii/cry-interpreter/internal/config"
)

// Modifier is a platform-neutral modifier key
type Modifier int

const (
	// Ctrl is the Control key
	Ctrl Modifier = iota
	// Shift is the Shift key
	Shift
	// Alt is Option on macOS
	Alt
	// Cmd is Command on macOS and the Super/Windows key elsewhere
	Cmd
)

// Event is sent on every press of the toggle shortcut
type Event struct {
	// Seq counts presses since Register, starting at 1
	Seq uint64
}

// Config holds hotkey configuration
type Config struct {
	Modifiers []Modifier
	Key       hotkey.Key
}

// ConfigFrom converts the user configuration into a hotkey Config
func ConfigFrom(c config.HotkeyConfig) (Config, error) {
	key, err := ParseKey(c.Key)
	if err != nil {
		return Config{}, err
	}

	var mods []Modifier
	if c.Ctrl {
		mods = append(mods, Ctrl)
	}
	if c.Shift {
		mods = append(mods, Shift)
	}
	if c.Alt {
		mods = append(mods, Alt)
	}
	if c.Cmd {
		mods = append(mods, Cmd)
	}

	return Config{Modifiers: mods, Key: key}, nil
}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with default configuration
// Default: Ctrl+Alt+Space
func New() *Manager {
	return &Manager{
		config: Config{
			Modifiers: []Modifier{Ctrl, Alt},
			Key:       hotkey.KeySpace,
		},
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the hotkey with the system
func (m *Manager) Register(config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	m.config = config

	// Channels may have been closed by a previous Close()
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(nativeModifiers(m.config.Modifiers), m.config.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen(hk, m.eventChan, m.stopChan)

	return nil
}

// RegisterDefault registers the default hotkey (Ctrl+Alt+Space)
func (m *Manager) RegisterDefault() error {
	return m.Register(m.GetConfig())
}

// listen turns key presses into toggle events
func (m *Manager) listen(hk *hotkey.Hotkey, events chan<- Event, stop <-chan struct{}) {
	defer m.wg.Done()

	var seq uint64
	for {
		select {
		case <-hk.Keydown():
			seq++
			select {
			case events <- Event{Seq: seq}:
			default:
				// consumer is behind; a toggle storm collapses
			}
		case <-stop:
			return
		}
	}
}

// Events returns the event channel for receiving hotkey events
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventChan
}

// Close unregisters the hotkey and stops listening
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	var unregisterErr error

	close(m.stopChan)
	m.wg.Wait()

	// Cleanup continues even if Unregister fails
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
	}

	// Closing the channel tells consumers about the shutdown
	if m.eventChan != nil {
		close(m.eventChan)
		m.eventChan = nil
	}

	// Allows Register again even after a failed Unregister
	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetConfig returns a deep copy of the current hotkey configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := m.config
	if m.config.Modifiers != nil {
		configCopy.Modifiers = make([]Modifier, len(m.config.Modifiers))
		copy(configCopy.Modifiers, m.config.Modifiers)
	}

	return configCopy
}
