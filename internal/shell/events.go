package shell

import (
	"fmt"

	"github.com/nconklindev/t24codes/internal/types"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type EventKind int

const (
	EventProgress EventKind = iota
	EventLog
	EventCompleted
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventLog:
		return "log"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a single notification from a run. Which fields are set depends on Kind:
//   - EventProgress: Percent (0-100)
//   - EventLog: Message
//   - EventCompleted: OutputPath, Result
//   - EventFailed: Message, Err, and Row when the failure is tied to a sheet row
type Event struct {
	Kind       EventKind
	Percent    int
	Message    string
	OutputPath string
	Row        int
	Err        error
	Result     *types.RunResult
}

// Terminal reports whether no further events follow e.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}
