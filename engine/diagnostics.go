// Package engine implements the lifecycle shell: the
// Idle->Fetching->Parsing->Styling->Layout->Rendering->Complete state
// machine with Error/Cancelled off-ramps, diagnostics, and the
// Navigate/Retry/Cancel surface. The Shell is a long-lived struct holding
// configuration and an optional *slog.Logger, exposing a small set of
// methods that drive a pipeline end to end and never panic on bad input.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Severity is a DiagnosticEvent's level.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// DiagnosticEvent is one structured record of something the pipeline
// observed. CorrelationID ties every event from one Navigate call
// together.
type DiagnosticEvent struct {
	Timestamp     time.Time
	Severity      Severity
	Module        string
	Stage         string
	Message       string
	CorrelationID string
}

// Stage enumerates the lifecycle states.
type Stage int

const (
	Idle Stage = iota
	Fetching
	Parsing
	Styling
	Layout
	Rendering
	Complete
	StageError
	Cancelled
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Fetching:
		return "Fetching"
	case Parsing:
		return "Parsing"
	case Styling:
		return "Styling"
	case Layout:
		return "Layout"
	case Rendering:
		return "Rendering"
	case Complete:
		return "Complete"
	case StageError:
		return "Error"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// TraceEntry is one lifecycle transition.
type TraceEntry struct {
	Stage              Stage
	EnteredAt          time.Time
	ElapsedSincePrevMS int64
}

// cancelFlag is a release/acquire-semantics atomic boolean shared between
// the shell's caller and the running pipeline.
type cancelFlag struct {
	v atomic.Bool
}

func (c *cancelFlag) set(val bool) { c.v.Store(val) }
func (c *cancelFlag) get() bool    { return c.v.Load() }

// Session is the per-navigation state attached to every result:
// navigation input, current stage, accumulated diagnostics and the
// lifecycle trace.
type Session struct {
	NavigationInput string
	Stage           Stage
	Diagnostics     []DiagnosticEvent
	Trace           []TraceEntry
}

func formatDiagnosticMessage(name, detail string) string {
	if detail == "" {
		return fmt.Sprintf("Stage transition: %s", name)
	}
	return fmt.Sprintf("Stage transition: %s (%s)", name, detail)
}
