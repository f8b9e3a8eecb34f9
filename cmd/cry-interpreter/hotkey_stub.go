//go:build linux && !x11hotkey

package main

// startHotkey is unavailable: the X11 hotkey backend aborts at startup when
// no display is reachable, which would take the console commands down with
// it. Build with -tags x11hotkey to enable it.
func (a *App) startHotkey() (<-chan struct{}, error) {
	return nil, errHotkeyUnsupported
}
