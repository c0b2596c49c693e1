package gamepad

import (
	"syscall"
	"time"
)

// State is the lifecycle of one Engine.
type State int32

const (
	Starting State = iota
	Running
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// axisState is the debounce state of one monitored axis.
type axisState struct {
	mapping  AxisMapping
	lastFire time.Time
}

// fire reports whether a past-threshold reading at ts should produce a tap,
// advancing lastFire when it does.
func (a *axisState) fire(ts time.Time) bool {
	elapsed := ts.Sub(a.lastFire)
	if elapsed < 0 {
		// wall clock stepped back; re-anchor instead of locking the axis out
		a.lastFire = ts
		return false
	}
	if elapsed <= DebounceWindow {
		return false
	}
	a.lastFire = ts
	return true
}

func timevalToTime(tv syscall.Timeval) time.Time {
	return time.Unix(0, tv.Nano())
}
