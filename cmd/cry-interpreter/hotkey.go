//go:build !linux || x11hotkey

package main

import (
	"github.com/yok-tottii/cry-interpreter/internal/hotkey"
)

// startHotkey registers the configured shortcut and forwards its presses as
// toggle requests. Presses arriving while a toggle is pending are dropped.
func (a *App) startHotkey() (<-chan struct{}, error) {
	config, err := hotkey.ConfigFrom(a.session.config.Hotkey)
	if err != nil {
		return nil, err
	}

	formatted := hotkey.FormatHotkey(config.Modifiers, config.Key)
	for _, c := range hotkey.CheckConflicts(config.Modifiers, config.Key) {
		a.session.logger.Warn("Hotkey %s conflicts with %s (%s)", formatted, c.Name, c.Description)
	}

	mgr := hotkey.New()
	if err := mgr.Register(config); err != nil {
		return nil, err
	}
	a.closeHotkey = mgr.Close
	a.session.logger.Info("Hotkey registered: %s", formatted)

	events := mgr.Events()
	toggles := make(chan struct{}, 1)
	go func() {
		defer close(toggles)
		for range events {
			select {
			case toggles <- struct{}{}:
			default:
			}
		}
	}()

	return toggles, nil
}
