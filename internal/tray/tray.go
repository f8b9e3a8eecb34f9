package tray

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/yok-tottii/cry-interpreter/internal/display"
	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
	"github.com/yok-tottii/cry-interpreter/internal/recording"
)

const (
	appName  = "Cry Interpreter"
	barWidth = 12
)

// Manager shows the chart in the system tray menu and offers Start/Stop.
// It implements display.Display.
type Manager struct {
	mu              sync.Mutex
	ready           bool
	state           recording.State
	labels          []string
	bars            map[int]float64
	onReadyCallback func()
	onStart         func()
	onStop          func()
	onDeviceChange  func(deviceID int)
	onQuit          func()

	menuStart   *systray.MenuItem
	menuStop    *systray.MenuItem
	menuDevices *systray.MenuItem
	menuQuit    *systray.MenuItem
	rows        []*systray.MenuItem

	deviceMenuItems   []*systray.MenuItem
	deviceCancelFuncs []context.CancelFunc

	icons map[recording.State][]byte
}

// Config holds tray manager configuration
type Config struct {
	OnReady        func() // Called when systray is ready for initialization
	OnStart        func()
	OnStop         func()
	OnDeviceChange func(deviceID int)
	OnQuit         func()
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	return &Manager{
		state:           recording.Unauthorized,
		bars:            map[int]float64{},
		onReadyCallback: config.OnReady,
		onStart:         config.OnStart,
		onStop:          config.OnStop,
		onDeviceChange:  config.OnDeviceChange,
		onQuit:          config.OnQuit,
		icons: map[recording.State][]byte{
			recording.Unauthorized: circleIcon(color.RGBA{0x9e, 0x9e, 0x9e, 0xff}),
			recording.Idle:         circleIcon(color.RGBA{0xe3, 0xe3, 0xe3, 0xff}),
			recording.Running:      circleIcon(color.RGBA{0xf1, 0x9e, 0x39, 0xff}),
		},
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

func (m *Manager) onReady() {
	systray.SetTooltip(appName)

	m.mu.Lock()
	m.menuStart = systray.AddMenuItem("Start Listening", "Start classifying microphone audio")
	m.menuStop = systray.AddMenuItem("Stop Listening", "Stop classifying and release the microphone")
	systray.AddSeparator()
	m.buildRows()
	systray.AddSeparator()
	m.menuDevices = systray.AddMenuItem("Input Device", "Select input device")
	m.menuQuit = systray.AddMenuItem("Quit", "Quit the application")
	m.ready = true
	m.applyState()
	m.render()
	m.mu.Unlock()

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

func (m *Manager) onExit() {}

func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuStart.ClickedCh:
			if m.onStart != nil {
				m.onStart()
			}
		case <-m.menuStop.ClickedCh:
			if m.onStop != nil {
				m.onStop()
			}
		case <-m.menuQuit.ClickedCh:
			if m.onQuit != nil {
				m.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

// Configure implements display.Display. Rows are created once the tray is ready.
func (m *Manager) Configure(labels []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.labels = append([]string(nil), labels...)
	if m.ready && m.rows == nil {
		// The tray came up first; rows go below the existing items
		m.buildRows()
		m.render()
	}
}

// buildRows adds one disabled menu item per label; m.mu must be held
func (m *Manager) buildRows() {
	for _, label := range m.labels {
		row := systray.AddMenuItem(label, "")
		row.Disable()
		m.rows = append(m.rows, row)
	}
}

// Update implements display.Display
func (m *Manager) Update(entries []interpreter.DisplayEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bars = barsFor(entries, len(m.labels))
	if m.ready {
		m.render()
	}
}

// render draws the rows and the tray title; m.mu must be held
func (m *Manager) render() {
	for i, row := range m.rows {
		if i >= len(m.labels) {
			break
		}
		p, ok := m.bars[i]
		row.SetTitle(rowTitle(m.labels[i], p, ok))
	}
	systray.SetTitle(trayTitle(m.labels, m.bars))
}

// SetState updates icon, tooltip and the Start/Stop items.
// The bars keep the last reading after listening stops.
func (m *Manager) SetState(state recording.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	if m.ready {
		m.applyState()
		m.render()
	}
}

// applyState pushes m.state to the tray; m.mu must be held
func (m *Manager) applyState() {
	systray.SetIcon(m.icons[m.state])
	systray.SetTooltip(tooltip(m.state))

	startEnabled, stopEnabled := menuEnabled(m.state)
	setEnabled(m.menuStart, startEnabled)
	setEnabled(m.menuStop, stopEnabled)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

// menuEnabled returns whether Start and Stop are clickable in state.
// Start stays enabled while unauthorized so a click can ask for access again.
func menuEnabled(state recording.State) (start, stop bool) {
	return state != recording.Running, state == recording.Running
}

func tooltip(state recording.State) string {
	switch state {
	case recording.Running:
		return appName + " - Listening"
	case recording.Idle:
		return appName + " - Idle"
	default:
		return appName + " - Microphone access required"
	}
}

// barsFor indexes entries by label, dropping out-of-range indexes
func barsFor(entries []interpreter.DisplayEntry, n int) map[int]float64 {
	bars := make(map[int]float64, len(entries))
	for _, e := range entries {
		if e.Index >= 0 && e.Index < n {
			bars[e.Index] = e.Percentage
		}
	}
	return bars
}

func rowTitle(label string, p float64, ok bool) string {
	if !ok {
		return label
	}
	return fmt.Sprintf("%s  %s  %s", label, strings.TrimRight(bar(p), " "), display.FormatPercentage(p))
}

func bar(p float64) string {
	return strings.ReplaceAll(display.Bar(p, barWidth), "#", "▇")
}

// trayTitle shows the strongest category next to the icon
func trayTitle(labels []string, bars map[int]float64) string {
	entries := make([]interpreter.DisplayEntry, 0, len(bars))
	for i := range labels {
		if p, ok := bars[i]; ok {
			entries = append(entries, interpreter.DisplayEntry{Index: i, Percentage: p})
		}
	}

	top, ok := display.Top(entries)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %s", labels[top.Index], display.FormatPercentage(top.Percentage))
}

// Device represents an audio device for the menu
type Device struct {
	ID        int
	Name      string
	IsDefault bool
	IsCurrent bool
}

// UpdateDeviceMenu replaces the device submenu with devices
func (m *Manager) UpdateDeviceMenu(devices []Device) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return
	}

	for _, cancel := range m.deviceCancelFuncs {
		cancel()
	}
	m.deviceCancelFuncs = nil

	for _, item := range m.deviceMenuItems {
		item.Hide()
	}
	m.deviceMenuItems = nil

	for _, device := range devices {
		menuItem := m.menuDevices.AddSubMenuItem(deviceTitle(device), deviceTooltip(device))
		m.deviceMenuItems = append(m.deviceMenuItems, menuItem)

		ctx, cancel := context.WithCancel(context.Background())
		m.deviceCancelFuncs = append(m.deviceCancelFuncs, cancel)

		go func(id int, item *systray.MenuItem, ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					if m.onDeviceChange != nil {
						m.onDeviceChange(id)
					}
				}
			}
		}(device.ID, menuItem, ctx)
	}
}

func deviceTitle(d Device) string {
	if d.IsCurrent {
		return "✓ " + d.Name
	}
	return d.Name
}

func deviceTooltip(d Device) string {
	if d.IsDefault {
		return "System default device"
	}
	return ""
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}

// circleIcon renders a 32x32 PNG filled circle in c
func circleIcon(c color.Color) []byte {
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	center := float64(size-1) / 2
	radius := float64(size)/2 - 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
