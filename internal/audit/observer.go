package audit

import (
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

var eventTypes = map[supervisor.EventType]EventType{
	supervisor.EventStarted: EventStart,
	supervisor.EventStopped: EventStop,
	supervisor.EventExited:  EventExit,
	supervisor.EventFailed:  EventError,
}

// Observer returns a supervisor observer that records session events.
// Engine output is not recorded.
func (l *Logger) Observer() supervisor.Observer {
	return supervisor.ObserverFuncs{
		Event: func(ev supervisor.Event) {
			t, ok := eventTypes[ev.Type]
			if !ok {
				return
			}
			details := ""
			if ev.PID > 0 {
				details = fmt.Sprintf("pid=%d", ev.PID)
			}
			if ev.Err != nil {
				if details != "" {
					details += " "
				}
				details += "error=" + ev.Err.Error()
			}
			err := l.Log(Event{Timestamp: ev.Time, Type: t, Profile: ev.Profile, Details: details})
			if err != nil {
				logging.Warn("failed to record event", "profile", ev.Profile, "type", t, "error", err)
			}
		},
	}
}
