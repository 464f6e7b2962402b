package scenario

// Status captures progress of a scenario or one of its tasks.
type Status string

const (
	// StatusQueued indicates the scenario is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusRunning is reported on start and on every inner poll.
	StatusRunning Status = "running"
	// StatusDone indicates completion.
	StatusDone Status = "done"
	// StatusExhausted indicates the run stopped on its poll budget.
	StatusExhausted Status = "exhausted"
	// StatusError indicates the run failed.
	StatusError Status = "error"
)

// Event reports progress for a task (or for the whole scenario when Task is
// empty).
type Event struct {
	Scenario   string
	Task       string
	Status     Status
	Attempts   uint64 // attempts made on the task so far
	InnerPolls int
	Steps      uint
	Err        error
}

// Sink consumes progress events. RunAll calls it from several goroutines.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}
