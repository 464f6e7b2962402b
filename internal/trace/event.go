package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1 // span start
	KindSpanEnd                   // span end
	KindPoint                     // instant event
	KindHeartbeat                 // periodic liveness signal
	KindError                     // failure, emitted at every level but off
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeRun  Scope = iota + 1 // one executor run
	ScopeTask                  // task spawn, completion, cancellation
	ScopePoll                  // a single poll of a task
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeRun:
		return "run"
	case ScopeTask:
		return "task"
	case ScopePoll:
		return "poll"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity
	SpanID   uint64            // span identifier, 0 for points
	ParentID uint64            // parent span (0 if root)
	Task     uint64            // executor task id, 0 if not task-bound
	Name     string            // e.g. "run", "spawn", "poll"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}

// passes reports whether a tracer at level should record ev.
func passes(level Level, ev *Event) bool {
	switch ev.Kind {
	case KindHeartbeat, KindError:
		return level > LevelOff
	}
	return level.ShouldEmit(ev.Scope)
}
