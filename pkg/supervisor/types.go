// Package supervisor implements the Flow Supervisor state machine that
// drives one dictation session from trigger to injected text, grounded on
// the teacher's ManagedStream: mutex-guarded state, a buffered event
// channel, cancel funcs invoked outside the lock, idempotent teardown.
package supervisor

import (
	"errors"
	"time"
)

// FlowStatus is the externally observable lifecycle state (spec 3).
type FlowStatus int

const (
	Idle FlowStatus = iota
	Starting
	Recording
	Finishing
	Transcribing
	Transforming
	Injecting
	Complete
	Error
)

func (s FlowStatus) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Recording:
		return "recording"
	case Finishing:
		return "finishing"
	case Transcribing:
		return "transcribing"
	case Transforming:
		return "transforming"
	case Injecting:
		return "injecting"
	case Complete:
		return "complete"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Mode selects how the session is triggered and torn down.
type Mode int

const (
	Toggle Mode = iota
	PushToTalk
)

// Session is created on Start and destroyed on Complete or Cancel.
type Session struct {
	UID               string
	Mode              Mode
	StartedAt         time.Time
	HadSelection      bool
	SelectedText      string
	Context           string
	OriginalClipboard string
}

// EventType distinguishes the two kinds of events the supervisor posts.
type EventType int

const (
	EventStatusChanged EventType = iota
	EventError
)

// Event is posted in the order transitions occur (spec 5 ordering
// guarantee); the window/UI layer consumes these to drive visibility.
type Event struct {
	Type    EventType
	Status  FlowStatus
	Err     error
	Session string
}

// Errors returned by supervisor operations that do not fit the deterministic
// per-component failure taxonomies already defined in the provider packages.
var (
	ErrNotIdle    = errors.New("supervisor: session already in progress")
	ErrNoSession  = errors.New("supervisor: no active session")
	ErrWrongState = errors.New("supervisor: operation invalid in current state")
)

// DefaultCompletionTimeout is wait_for_completed's default budget (spec 5):
// on expiry the supervisor proceeds with whatever is completed and logs an
// error rather than blocking indefinitely.
const DefaultCompletionTimeout = 30 * time.Second
