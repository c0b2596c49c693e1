package gamepad

import (
	"time"

	evdev "github.com/holoplot/go-evdev"
)

const (
	// AxisThreshold is the deflection a stick reading must exceed (strictly)
	// before it counts as a direction press. Roughly 91% of full range.
	AxisThreshold int32 = 30000
	// DebounceWindow is the minimum gap between two taps on the same axis.
	DebounceWindow = 150 * time.Millisecond
)

// ButtonMapping routes a controller button to a keyboard key.
type ButtonMapping struct {
	Button evdev.EvCode
	Key    evdev.EvCode
}

// KeyMapping is an ordered button table. The first entry for a button wins.
type KeyMapping []ButtonMapping

// Lookup returns the key mapped to button.
func (m KeyMapping) Lookup(button evdev.EvCode) (evdev.EvCode, bool) {
	for _, bm := range m {
		if bm.Button == button {
			return bm.Key, true
		}
	}
	return 0, false
}

// AxisMapping turns full deflection of one stick axis into directional taps.
type AxisMapping struct {
	Axis     evdev.EvCode
	Negative evdev.EvCode
	Positive evdev.EvCode
}

// direction picks the key for the sign of value. Callers never pass zero.
func (a AxisMapping) direction(value int32) evdev.EvCode {
	if value < 0 {
		return a.Negative
	}
	return a.Positive
}

// DefaultMapping is the compiled-in button table.
var DefaultMapping = KeyMapping{
	{Button: evdev.BTN_SOUTH, Key: evdev.KEY_ENTER},
	{Button: evdev.BTN_EAST, Key: evdev.KEY_DELETE},
	{Button: evdev.BTN_SELECT, Key: evdev.KEY_LEFTSHIFT},
	{Button: evdev.BTN_START, Key: evdev.KEY_LEFTCTRL},
	{Button: evdev.BTN_MODE, Key: evdev.KEY_LEFTMETA},
}

// DefaultAxes maps the left stick onto the arrow keys.
var DefaultAxes = []AxisMapping{
	{Axis: evdev.ABS_X, Negative: evdev.KEY_LEFT, Positive: evdev.KEY_RIGHT},
	{Axis: evdev.ABS_Y, Negative: evdev.KEY_UP, Positive: evdev.KEY_DOWN},
}

// exceedsThreshold reports whether |value| > AxisThreshold.
func exceedsThreshold(value int32) bool {
	v := int64(value)
	if v < 0 {
		v = -v
	}
	return v > int64(AxisThreshold)
}
