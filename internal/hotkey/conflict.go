//go:build !linux || x11hotkey

package hotkey

import "golang.design/x/hotkey"

// ConflictInfo represents information about a known shortcut conflict
type ConflictInfo struct {
	Name        string
	Description string
	Modifiers   []Modifier
	Key         hotkey.Key
}

// knownConflicts lists common system and launcher shortcuts
var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search",
		Modifiers:   []Modifier{Cmd},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Raycast",
		Description: "Raycast launcher (common default)",
		Modifiers:   []Modifier{Alt},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Input Source",
		Description: "Input source switch",
		Modifiers:   []Modifier{Ctrl},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Force Quit",
		Description: "macOS Force Quit",
		Modifiers:   []Modifier{Cmd, Alt},
		Key:         hotkey.KeyEscape,
	},
}

// CheckConflicts checks if the given hotkey conflicts with known system shortcuts
func CheckConflicts(modifiers []Modifier, key hotkey.Key) []ConflictInfo {
	var conflicts []ConflictInfo

	for _, known := range knownConflicts {
		if hotkeyMatches(modifiers, key, known.Modifiers, known.Key) {
			conflicts = append(conflicts, known)
		}
	}

	return conflicts
}

// hotkeyMatches checks if two hotkey combinations are identical
func hotkeyMatches(mods1 []Modifier, key1 hotkey.Key, mods2 []Modifier, key2 hotkey.Key) bool {
	if key1 != key2 {
		return false
	}

	set1 := make(map[Modifier]bool)
	set2 := make(map[Modifier]bool)
	for _, mod := range mods1 {
		set1[mod] = true
	}
	for _, mod := range mods2 {
		set2[mod] = true
	}

	if len(set1) != len(set2) {
		return false
	}
	for mod := range set1 {
		if !set2[mod] {
			return false
		}
	}

	return true
}

// FormatHotkey returns a human-readable string representation of the hotkey
func FormatHotkey(modifiers []Modifier, key hotkey.Key) string {
	result := ""

	for _, mod := range modifiers {
		switch mod {
		case Ctrl:
			result += "⌃"
		case Shift:
			result += "⇧"
		case Alt:
			result += "⌥"
		case Cmd:
			result += "⌘"
		}
	}

	return result + keyToString(key)
}
