//go:build linux && x11hotkey

package hotkey

import "golang.design/x/hotkey"

func nativeModifiers(mods []Modifier) []hotkey.Modifier {
	native := make([]hotkey.Modifier, 0, len(mods))
	for _, mod := range mods {
		switch mod {
		case Ctrl:
			native = append(native, hotkey.ModCtrl)
		case Shift:
			native = append(native, hotkey.ModShift)
		case Alt:
			native = append(native, hotkey.Mod1)
		case Cmd:
			native = append(native, hotkey.Mod4)
		}
	}
	return native
}
