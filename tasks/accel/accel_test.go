package accel

import (
	"bytes"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"rtsense/client/console"
	"rtsense/hal"
	"rtsense/kernel"
)

type bench struct {
	k    *kernel.Kernel
	out  bytes.Buffer
	task *Task
	id   kernel.TaskID
}

func newBench(t *testing.T, dev hal.Accelerometer) *bench {
	t.Helper()
	b := &bench{k: kernel.New()}
	t.Cleanup(b.k.Stop)
	gate := console.New(&b.out)
	b.task = New(dev, gate, 500*time.Millisecond)

	if _, err := b.k.CreateTask(kernel.TaskSpec{Name: "arm", Priority: 4, StackWords: 256, Entry: func(c *kernel.Context) {
		if err := c.ArmTick(); err != nil {
			panic(err)
		}
		c.Halt()
	}}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	id, err := b.k.CreateTask(kernel.TaskSpec{Name: "accel", Priority: 8, StackWords: 256, Entry: b.task.Run})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	b.id = id
	m, err := b.k.CreateMutex(6)
	if err != nil {
		t.Fatalf("CreateMutex: %v", err)
	}
	gate.Attach(m)
	if err := b.k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	b.k.WaitIdle()
	return b
}

func TestModeFailureReportedOnce(t *testing.T) {
	b := newBench(t, hal.NewSimAccelerometer(hal.SimAccelConfig{FailMode: true}))
	b.k.Advance(2000)

	if got := b.out.String(); got != MsgModeFailed {
		t.Fatalf("output = %q, want %q", got, MsgModeFailed)
	}
	if s := b.task.State(); s != StateModeFailed {
		t.Fatalf("State() = %s, want %s", s, StateModeFailed)
	}
	if st := b.k.TaskState(b.id); st != kernel.StateHalted {
		t.Fatalf("TaskState() = %s, want %s", st, kernel.StateHalted)
	}
}

func TestCalibrationFailureReportedOnce(t *testing.T) {
	b := newBench(t, hal.NewSimAccelerometer(hal.SimAccelConfig{FailCalibrate: true}))
	b.k.Advance(2000)

	if got := b.out.String(); got != MsgCalibrationFailed {
		t.Fatalf("output = %q, want %q", got, MsgCalibrationFailed)
	}
	if s := b.task.State(); s != StateCalibrationFailed {
		t.Fatalf("State() = %s, want %s", s, StateCalibrationFailed)
	}
	if st := b.k.TaskState(b.id); st != kernel.StateHalted {
		t.Fatalf("TaskState() = %s, want %s", st, kernel.StateHalted)
	}
}

func TestReadyPrintsReadings(t *testing.T) {
	dev := hal.NewSimAccelerometer(hal.SimAccelConfig{
		Sample: func(n uint64) (int32, int32, int32) { return int32(n), -1, 64 },
	})
	b := newBench(t, dev)

	want := MsgInitialised + "Acc  : 00000, -0001, 00064\n"
	if got := b.out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if s := b.task.State(); s != StateReady {
		t.Fatalf("State() = %s, want %s", s, StateReady)
	}

	b.k.Advance(1000)
	want += "Acc  : 00001, -0001, 00064\nAcc  : 00002, -0001, 00064\n"
	if got := b.out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

// flaky fails every other sample.
type flaky struct {
	*hal.SimAccelerometer
	n int
}

func (f *flaky) Update(which drivers.Measurement) error {
	f.n++
	if f.n%2 == 0 {
		return hal.ErrNotConfigured
	}
	return f.SimAccelerometer.Update(which)
}

func TestFailedSampleSkipsLine(t *testing.T) {
	dev := &flaky{SimAccelerometer: hal.NewSimAccelerometer(hal.SimAccelConfig{
		Sample: func(n uint64) (int32, int32, int32) { return int32(n), 0, 0 },
	})}
	b := newBench(t, dev)
	b.k.Advance(1000)

	want := MsgInitialised + "Acc  : 00000, 00000, 00000\nAcc  : 00001, 00000, 00000\n"
	if got := b.out.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}
