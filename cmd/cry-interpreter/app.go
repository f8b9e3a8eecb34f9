package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yok-tottii/cry-interpreter/internal/audio"
	"github.com/yok-tottii/cry-interpreter/internal/display"
	"github.com/yok-tottii/cry-interpreter/internal/interpreter"
	"github.com/yok-tottii/cry-interpreter/internal/notification"
	"github.com/yok-tottii/cry-interpreter/internal/permissions"
	"github.com/yok-tottii/cry-interpreter/internal/recording"
	"github.com/yok-tottii/cry-interpreter/internal/tray"
)

// permissionPollInterval is how often authorization changes are picked up
const permissionPollInterval = 2 * time.Second

// errHotkeyUnsupported is returned by startHotkey in builds without a hotkey backend
var errHotkeyUnsupported = errors.New("global hotkey not supported in this build")

// App holds the tray application state
type App struct {
	session    *session
	trayMgr    *tray.Manager
	dispatcher *display.Dispatcher
	loop       *interpreter.Loop
	manager    *recording.Manager
	notifier   *notification.NotificationManager
	checker    *permissions.PermissionChecker

	closeHotkey func() error
	cancel      context.CancelFunc
	quitOnce    sync.Once
}

func runTray(configPath string) error {
	s, err := openSession(configPath, false)
	if err != nil {
		return err
	}
	defer s.Close()

	return trayMain(s)
}

// trayMain runs the tray application on s until the user quits
func trayMain(s *session) error {
	app := &App{
		session:  s,
		notifier: notification.NewNotificationManager("Cry Interpreter"),
		checker:  permissions.NewPermissionChecker(),
	}

	app.trayMgr = tray.NewManager(tray.Config{
		OnReady:        app.onReady,
		OnStart:        app.handleStart,
		OnStop:         app.handleStop,
		OnDeviceChange: app.handleDeviceChange,
		OnQuit:         app.handleQuit,
	})

	s.logger.Info("Starting system tray")

	// Blocks until the tray quits
	app.trayMgr.Run()
	return nil
}

// onReady is called once the tray is up
func (a *App) onReady() {
	log := a.session.logger

	a.dispatcher = display.NewDispatcher(a.trayMgr, a.session.labels, updateBuffer)

	// The device is read on every Start so a menu change applies to the next session
	opener := audio.OpenerFunc(func(format audio.Format) (audio.Source, error) {
		return audio.PortAudioOpener{Config: a.session.config.AudioConfig()}.Open(format)
	})
	a.loop = interpreter.New(a.session.loopConfig(opener, a.dispatcher))

	a.manager = recording.New(a.loop, a.checker, recording.Config{
		Logger:  log,
		OnError: a.reportError,
	})
	a.manager.OnStateChange(a.onStateChange)
	a.trayMgr.SetState(a.manager.GetState())

	status := a.checker.MicrophoneStatus()
	if status == permissions.PermissionAuthorized {
		log.Info("Microphone: %s", permissions.GetPermissionStatusMessage(status))
	} else {
		log.Warn("Microphone: %s", permissions.GetPermissionStatusMessage(status))
	}

	if a.session.classifier == nil {
		a.notifier.ModelLoadFailed(a.session.modelPath(), errorReason(a.session.classifierErr))
	}

	a.refreshDevices()

	toggles, err := a.startHotkey()
	switch {
	case errors.Is(err, errHotkeyUnsupported):
		log.Info("Global hotkey not available in this build")
	case err != nil:
		log.Error("Failed to register hotkey: %v", err)
		a.notifier.SendWarning("Hotkey unavailable", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.manager.Watch(toggles, permissions.Watch(ctx, a.checker, permissionPollInterval))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal")
		a.handleQuit()
		a.trayMgr.Quit()
	}()

	log.Info("Ready")
}

func (a *App) onStateChange(state recording.State) {
	a.trayMgr.SetState(state)

	switch state {
	case recording.Running:
		a.notifier.ListeningStarted()
	case recording.Idle:
		a.notifier.ListeningStopped()
	case recording.Unauthorized:
		a.notifier.MicrophonePermissionDenied()
	}
}

func (a *App) handleStart() {
	a.reportError(a.manager.Start())
}

func (a *App) handleStop() {
	a.reportError(a.manager.Stop())
}

// reportError logs err and tells the user what went wrong
func (a *App) reportError(err error) {
	if err == nil {
		return
	}
	a.session.logger.Error("%v", err)

	switch {
	case errors.Is(err, recording.ErrUnauthorized):
		a.notifier.MicrophonePermissionDenied()
	case errors.Is(err, interpreter.ErrModelLoad):
		a.notifier.ModelLoadFailed(a.session.modelPath(), errorReason(err))
	case errors.Is(err, interpreter.ErrResource):
		a.notifier.DeviceUnavailable(errorReason(err))
	case errors.Is(err, interpreter.ErrAlreadyRunning):
	default:
		a.notifier.SendError("Cry Interpreter", err.Error())
	}
}

func errorReason(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func (a *App) refreshDevices() {
	devices, err := audio.ListDevices()
	if err != nil {
		a.session.logger.Error("Failed to list audio devices: %v", err)
		return
	}

	current := a.session.config.AudioConfig().DeviceID
	items := make([]tray.Device, 0, len(devices))
	for _, d := range devices {
		items = append(items, tray.Device{
			ID:        d.ID,
			Name:      d.Name,
			IsDefault: d.IsDefault,
			IsCurrent: d.ID == current || (current < 0 && d.IsDefault),
		})
	}
	a.trayMgr.UpdateDeviceMenu(items)
}

// handleDeviceChange saves the new device and restarts a running session on it
func (a *App) handleDeviceChange(deviceID int) {
	log := a.session.logger
	log.Info("Input device changed to %d", deviceID)

	a.session.config.SetAudioDeviceID(deviceID)
	if err := a.session.config.Save(a.session.configPath); err != nil {
		log.Error("Failed to save config: %v", err)
	}
	a.refreshDevices()

	if a.manager.GetState() != recording.Running {
		return
	}
	if err := a.manager.Stop(); err != nil {
		a.reportError(err)
	}
	if err := a.manager.Start(); err != nil {
		a.reportError(fmt.Errorf("failed to restart on device %d: %w", deviceID, err))
	}
}

// handleQuit releases the microphone, the hotkey and the display
func (a *App) handleQuit() {
	a.quitOnce.Do(func() {
		log := a.session.logger
		log.Info("Quit requested")

		if a.cancel != nil {
			a.cancel()
		}
		if a.manager != nil {
			if err := a.manager.Close(); err != nil {
				log.Error("Failed to stop listening: %v", err)
			}
		}
		if a.closeHotkey != nil {
			if err := a.closeHotkey(); err != nil {
				log.Error("Failed to unregister hotkey: %v", err)
			}
		}
		if a.dispatcher != nil {
			a.dispatcher.Close()
		}

		log.Info("Shutdown complete")
	})
}
