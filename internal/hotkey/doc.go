// Package hotkey registers the global start/stop toggle shortcut.
//
// On Linux the X11 backend aborts the process at startup when no display is
// reachable, so it is only built with -tags x11hotkey.
package hotkey
