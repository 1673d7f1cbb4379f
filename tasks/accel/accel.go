package accel

import (
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"rtsense/client/console"
	"rtsense/hal"
	"rtsense/kernel"
)

// Console messages.
const (
	MsgModeFailed        = "Unable to set mode for MMA7455!\n"
	MsgCalibrationFailed = "Failed to calibrate MMA7455!\n"
	MsgInitialised       = "MMA7455 initialised\n"
	Format               = "Acc  : %05d, %05d, %05d\n"
)

// State is the sensor task lifecycle.
type State uint32

const (
	StateUninitialized State = iota
	StateModeFailed
	StateCalibrating
	StateCalibrationFailed
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateModeFailed:
		return "mode-failed"
	case StateCalibrating:
		return "calibrating"
	case StateCalibrationFailed:
		return "calibration-failed"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Task brings up the accelerometer and prints one reading per period. A
// failed bring-up is reported once and halts the task.
type Task struct {
	dev    hal.Accelerometer
	gate   *console.Gate
	period time.Duration
	state  atomic.Uint32
}

// New returns a task that reads dev and reports it every period.
func New(dev hal.Accelerometer, gate *console.Gate, period time.Duration) *Task {
	return &Task{dev: dev, gate: gate, period: period}
}

// State returns the current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// Run is the task body. It never returns.
func (t *Task) Run(ctx *kernel.Context) {
	t.state.Store(uint32(StateUninitialized))
	if !t.dev.SetMode(hal.AccelModeMeasurement) {
		t.fail(ctx, StateModeFailed, MsgModeFailed)
	}
	t.state.Store(uint32(StateCalibrating))
	if !t.dev.Calibrate() {
		t.fail(ctx, StateCalibrationFailed, MsgCalibrationFailed)
	}
	t.state.Store(uint32(StateReady))
	if err := t.gate.Write(ctx, []byte(MsgInitialised)); err != nil {
		panic(err)
	}

	for {
		// A failed sample skips this period's line.
		if err := t.dev.Update(drivers.Acceleration); err == nil {
			x, y, z := t.dev.Acceleration()
			if err := t.gate.Printf(ctx, Format, x, y, z); err != nil {
				panic(err)
			}
		}
		ctx.DelayFor(t.period)
	}
}

func (t *Task) fail(ctx *kernel.Context, s State, msg string) {
	t.state.Store(uint32(s))
	if err := t.gate.Write(ctx, []byte(msg)); err != nil {
		panic(err)
	}
	ctx.Halt()
}
