package pot

import (
	"time"

	"rtsense/client/console"
	"rtsense/hal"
	"rtsense/kernel"
)

// Format is the console line for one sample.
const Format = "Pot  : %1.2f\n"

// Task samples an analog input and prints it once per period.
type Task struct {
	in     hal.AnalogIn
	gate   *console.Gate
	period time.Duration
}

// New returns a task that samples in and reports it every period.
func New(in hal.AnalogIn, gate *console.Gate, period time.Duration) *Task {
	return &Task{in: in, gate: gate, period: period}
}

// Run is the task body. It never returns.
func (t *Task) Run(ctx *kernel.Context) {
	for {
		if err := t.gate.Printf(ctx, Format, t.in.Read()); err != nil {
			panic(err)
		}
		ctx.DelayFor(t.period)
	}
}
