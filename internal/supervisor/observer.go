package supervisor

import (
	"fmt"
	"time"
)

// EventType classifies a session lifecycle event.
type EventType string

const (
	// EventStarted is emitted once the engine is running.
	EventStarted EventType = "started"
	// EventStopped is emitted after Stop has terminated the engine.
	EventStopped EventType = "stopped"
	// EventExited is emitted when the engine exits on its own.
	EventExited EventType = "exited"
	// EventFailed is emitted when a start attempt fails after the profile
	// was resolved.
	EventFailed EventType = "failed"
)

// Event describes a change in the supervised session.
type Event struct {
	Type    EventType
	Profile string
	PID     int
	Time    time.Time
	// Err is the exit or failure cause, if any.
	Err error
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s", e.Type, e.Profile)
	if e.PID > 0 {
		s += fmt.Sprintf(" (pid %d)", e.PID)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Observer receives engine output and lifecycle events.
//
// OnLine is called from the session's streaming goroutine and must not call
// back into the Supervisor. OnEvent is called without the supervisor lock
// held.
type Observer interface {
	OnLine(profile, line string)
	OnEvent(ev Event)
}

// ObserverFuncs adapts a pair of functions to Observer. Nil fields are
// ignored.
type ObserverFuncs struct {
	Line  func(profile, line string)
	Event func(ev Event)
}

func (o ObserverFuncs) OnLine(profile, line string) {
	if o.Line != nil {
		o.Line(profile, line)
	}
}

func (o ObserverFuncs) OnEvent(ev Event) {
	if o.Event != nil {
		o.Event(ev)
	}
}
