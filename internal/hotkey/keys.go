//go:build !linux || x11hotkey

package hotkey

import (
	"fmt"
	"strings"

	"golang.design/x/hotkey"
)

var keyNames = map[string]hotkey.Key{
	"Space":  hotkey.KeySpace,
	"Return": hotkey.KeyReturn,
	"Esc":    hotkey.KeyEscape,
	"Tab":    hotkey.KeyTab,
	"Delete": hotkey.KeyDelete,

	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
}

var keyAliases = map[string]string{
	"ESCAPE": "Esc",
	"ENTER":  "Return",
}

// ParseKey converts a key name such as "Space", "k" or "F5" into a hotkey.Key
func ParseKey(name string) (hotkey.Key, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := keyAliases[upper]; ok {
		upper = strings.ToUpper(alias)
	}

	for n, key := range keyNames {
		if strings.ToUpper(n) == upper {
			return key, nil
		}
	}
	return 0, fmt.Errorf("unsupported hotkey key: %q", name)
}

// keyToString converts a hotkey.Key to a display string
func keyToString(key hotkey.Key) string {
	for name, k := range keyNames {
		if k == key {
			return name
		}
	}
	return "Unknown"
}
