package kernel

// EventKind identifies a scheduling event.
type EventKind uint8

const (
	EventDispatch EventKind = iota + 1
	EventPreempt
	EventDelay
	EventWake
	EventAcquire
	EventBlock
	EventRelease
	EventTimeout
	EventPriority
	EventHalt
)

func (k EventKind) String() string {
	switch k {
	case EventDispatch:
		return "dispatch"
	case EventPreempt:
		return "preempt"
	case EventDelay:
		return "delay"
	case EventWake:
		return "wake"
	case EventAcquire:
		return "acquire"
	case EventBlock:
		return "block"
	case EventRelease:
		return "release"
	case EventTimeout:
		return "timeout"
	case EventPriority:
		return "priority"
	case EventHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Event is one scheduling decision, reported to the observer.
//
// Priority is the task's effective priority after the event. Mutex is the
// mutex number for mutex events and 0 otherwise.
type Event struct {
	Tick     uint64
	Kind     EventKind
	Task     TaskID
	Priority Priority
	Mutex    int
}
