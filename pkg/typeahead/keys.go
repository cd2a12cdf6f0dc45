package typeahead

import "strings"

// Key is a key event the controller may consume.
type Key uint8

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyEscape
	KeyEnter
	KeyTab
)

var keyNames = map[Key]string{
	KeyOther:  "other",
	KeyUp:     "up",
	KeyDown:   "down",
	KeyEscape: "escape",
	KeyEnter:  "enter",
	KeyTab:    "tab",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "other"
}

// ParseKey maps a key name (as sent by hosts) to a Key. Unknown names are KeyOther.
func ParseKey(name string) Key {
	switch strings.ToLower(name) {
	case "up", "arrowup":
		return KeyUp
	case "down", "arrowdown":
		return KeyDown
	case "esc", "escape":
		return KeyEscape
	case "enter", "return":
		return KeyEnter
	case "tab":
		return KeyTab
	default:
		return KeyOther
	}
}
