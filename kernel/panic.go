package kernel

import "sync/atomic"

// PanicInfo describes a task fault: a recovered panic, a returned entry
// point, or a delay before the tick source was armed.
type PanicInfo struct {
	TaskID TaskID
	Task   string
	Value  any
	Stack  []byte
}

var (
	faults       atomic.Uint32
	panicHandler atomic.Value // func(PanicInfo)
)

// Faults reports how many task faults this process has seen.
func Faults() uint32 {
	return faults.Load()
}

// SetPanicHandler installs a process-wide fault handler.
//
// The handler runs on the faulting task before it halts, once per fault. It
// must not panic or call kernel services.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

func triggerPanic(info PanicInfo) {
	faults.Add(1)
	info.Stack = captureStack()
	if v := panicHandler.Load(); v != nil {
		if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
			fn(info)
		}
	}
}
