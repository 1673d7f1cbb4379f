package blink

import (
	"fmt"
	"time"

	"rtsense/hal"
	"rtsense/kernel"
)

// Order selects whether a cycle toggles before or after its delay.
type Order uint8

const (
	ToggleFirst Order = iota
	DelayFirst
)

// Task toggles one pin forever at a fixed period.
type Task struct {
	pin     hal.GPIOPin
	period  time.Duration
	order   Order
	armTick bool
}

// Option configures a Task.
type Option func(*Task)

// WithOrder sets whether each cycle toggles before or after its delay.
func WithOrder(o Order) Option { return func(t *Task) { t.order = o } }

// WithTickArm makes the task arm the kernel tick before its first delay.
// Only the highest-priority task may use it.
func WithTickArm() Option { return func(t *Task) { t.armTick = true } }

// New returns a task that toggles pin every period.
func New(pin hal.GPIOPin, period time.Duration, opts ...Option) *Task {
	t := &Task{pin: pin, period: period}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run is the task body. It never returns.
func (t *Task) Run(ctx *kernel.Context) {
	if t.armTick {
		if err := ctx.ArmTick(); err != nil {
			panic(err)
		}
	}
	if t.pin == nil {
		panic(fmt.Errorf("blink: %s: %w", ctx.Name(), hal.ErrNotImplemented))
	}
	if err := t.pin.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
		panic(err)
	}

	for {
		if t.order == DelayFirst {
			ctx.DelayFor(t.period)
		}
		if err := hal.Toggle(t.pin); err != nil {
			panic(err)
		}
		if t.order == ToggleFirst {
			ctx.DelayFor(t.period)
		}
	}
}
