package kernel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

const (
	maxTasks = 32

	// MaxPriority is the lowest usable priority level. Lower values run first.
	MaxPriority Priority = 63

	// MinStackWords is the smallest stack a task may declare.
	MinStackWords = 64

	// DefaultTickRate is the tick frequency in Hz used when none is configured.
	DefaultTickRate = 1000
)

// TaskID identifies a task in creation order.
type TaskID uint8

// Priority orders tasks. Lower numeric values are higher priorities and every
// task and mutex ceiling owns a distinct level.
type Priority uint8

// State is the run state of a task.
type State uint8

const (
	StateReady State = iota + 1
	StateRunning
	StateBlocked
	StateDelayed
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateDelayed:
		return "delayed"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// TaskFunc is a task entry point. It must never return.
type TaskFunc func(*Context)

// TaskSpec describes a task to create.
type TaskSpec struct {
	Name       string
	Priority   Priority
	StackWords int
	Entry      TaskFunc
}

// TickSource delivers one value per hardware tick.
type TickSource interface {
	Ticks() <-chan uint64
}

type tcb struct {
	id    TaskID
	name  string
	base  Priority
	prio  Priority
	stack int
	entry TaskFunc

	state   State
	wake    uint64
	pend    *Mutex
	pendErr error
	held    []*Mutex

	run chan struct{}
}

// Kernel is a single-CPU fixed-priority preemptive scheduler.
//
// Every task runs on its own goroutine, but only the task holding the
// dispatch baton executes. The baton moves at service calls (Delay, Pend,
// Post, Halt, ArmTick) and, when the CPU is idle, at ticks.
//
// A goroutine cannot be interrupted from outside, so a tick that readies a
// more urgent task preempts the running one at its next service call, not
// mid-instruction. Work between service calls (a stream write, a sensor
// read) runs to completion first.
type Kernel struct {
	mu   sync.Mutex
	idle sync.Cond

	tasks   []*tcb
	mutexes []*Mutex
	cur     *tcb

	tick     uint64
	tickRate uint32
	src      TickSource
	armed    bool

	started bool
	closed  bool
	done    chan struct{}

	log     *slog.Logger
	observe func(Event)
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithTickSource sets the timer that drives ticks once armed. Without a source
// ticks are delivered only through Tick and Advance.
func WithTickSource(src TickSource) Option {
	return func(k *Kernel) { k.src = src }
}

// WithTickRate sets the tick frequency in Hz.
func WithTickRate(hz uint32) Option {
	return func(k *Kernel) {
		if hz > 0 {
			k.tickRate = hz
		}
	}
}

// WithLogger sets the logger for kernel lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.log = l
		}
	}
}

// WithObserver installs a hook that receives every scheduling event.
//
// The hook runs with the kernel locked and must not call back into it.
func WithObserver(fn func(Event)) Option {
	return func(k *Kernel) { k.observe = fn }
}

// New creates a kernel instance.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		tickRate: DefaultTickRate,
		done:     make(chan struct{}),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	k.idle.L = &k.mu
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// CreateTask registers a task. Tasks may only be created before the
// scheduler starts.
func (k *Kernel) CreateTask(spec TaskSpec) (TaskID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch {
	case k.started:
		return 0, fmt.Errorf("kernel: create task %q: %w", spec.Name, ErrStarted)
	case spec.Entry == nil:
		return 0, fmt.Errorf("kernel: create task %q: %w", spec.Name, ErrNoEntry)
	case spec.Priority > MaxPriority:
		return 0, fmt.Errorf("kernel: create task %q: priority %d: %w", spec.Name, spec.Priority, ErrInvalidPriority)
	case k.priorityInUseLocked(spec.Priority):
		return 0, fmt.Errorf("kernel: create task %q: priority %d: %w", spec.Name, spec.Priority, ErrPriorityExists)
	case spec.StackWords < MinStackWords:
		return 0, fmt.Errorf("kernel: create task %q: %d words: %w", spec.Name, spec.StackWords, ErrStackTooSmall)
	case len(k.tasks) >= maxTasks:
		return 0, fmt.Errorf("kernel: create task %q: %w", spec.Name, ErrTooManyTasks)
	}

	t := &tcb{
		id:    TaskID(len(k.tasks)),
		name:  spec.Name,
		base:  spec.Priority,
		prio:  spec.Priority,
		stack: spec.StackWords,
		entry: spec.Entry,
		state: StateReady,
		run:   make(chan struct{}, 1),
	}
	k.tasks = append(k.tasks, t)
	k.log.Debug("task created", "task", t.name, "id", t.id, "priority", t.base, "stack", t.stack)
	return t.id, nil
}

// Launch starts dispatching the highest-priority ready task and returns.
func (k *Kernel) Launch() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		return fmt.Errorf("kernel: launch: %w", ErrStarted)
	}
	if k.closed {
		return fmt.Errorf("kernel: launch: %w", ErrStopped)
	}
	if len(k.tasks) == 0 {
		return fmt.Errorf("kernel: launch: %w", ErrNoTasks)
	}
	k.started = true
	for _, t := range k.tasks {
		go k.taskMain(t)
	}
	k.log.Info("scheduler started", "tasks", len(k.tasks), "mutexes", len(k.mutexes), "tick_hz", k.tickRate)
	k.dispatchLocked(k.highestReadyLocked())
	return nil
}

// Start launches the scheduler and owns the caller until ctx is done.
//
// On firmware ctx never ends, so Start never returns once the scheduler
// runs. A returned error means the scheduler could not start or was stopped.
func (k *Kernel) Start(ctx context.Context) error {
	if err := k.Launch(); err != nil {
		return err
	}
	<-ctx.Done()
	k.Stop()
	return ctx.Err()
}

// Stop unwinds every task goroutine. The kernel cannot be restarted.
func (k *Kernel) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return
	}
	k.closed = true
	k.cur = nil
	close(k.done)
	k.idle.Broadcast()
}

// Now returns the current tick count.
func (k *Kernel) Now() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tick
}

// TaskState returns the run state of a task.
func (k *Kernel) TaskState(id TaskID) State {
	k.mu.Lock()
	defer k.mu.Unlock()
	if int(id) >= len(k.tasks) {
		return 0
	}
	return k.tasks[id].state
}

// TaskPriority returns the effective priority of a task.
func (k *Kernel) TaskPriority(id TaskID) Priority {
	k.mu.Lock()
	defer k.mu.Unlock()
	if int(id) >= len(k.tasks) {
		return 0
	}
	return k.tasks[id].prio
}

// TaskName returns the name a task was created with.
func (k *Kernel) TaskName(id TaskID) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if int(id) >= len(k.tasks) {
		return ""
	}
	return k.tasks[id].name
}

func (k *Kernel) taskMain(t *tcb) {
	k.park(t)
	ctx := &Context{k: k, t: t}
	defer func() {
		if r := recover(); r != nil {
			k.fault(t, r)
		}
	}()
	t.entry(ctx)
	k.fault(t, ErrTaskReturned)
}

// park blocks the task goroutine until it is dispatched. Shutdown unwinds it.
func (k *Kernel) park(t *tcb) {
	select {
	case <-t.run:
	case <-k.done:
		runtime.Goexit()
	}
	select {
	case <-k.done:
		runtime.Goexit()
	default:
	}
}

// enter locks the kernel for a service call. A call made after Stop unwinds
// the calling task goroutine.
func (k *Kernel) enter() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		runtime.Goexit()
	}
}

// leave is the scheduling point of a service call. It unlocks the kernel and
// parks t if a higher-priority task took the CPU.
func (k *Kernel) leave(t *tcb) {
	yield := k.reschedLocked(t)
	k.mu.Unlock()
	if yield {
		k.park(t)
	}
}

func (k *Kernel) fault(t *tcb, v any) {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		runtime.Goexit()
	}
	k.log.Error("task fault", "task", t.name, "id", t.id, "value", v)
	k.mu.Unlock()

	triggerPanic(PanicInfo{TaskID: t.id, Task: t.name, Value: v})

	k.mu.Lock()
	k.haltLocked(t)
	k.mu.Unlock()
	for {
		k.park(t)
	}
}

func (k *Kernel) haltLocked(t *tcb) {
	t.state = StateHalted
	t.wake = 0
	k.emit(Event{Kind: EventHalt, Task: t.id, Priority: t.prio})
	k.log.Warn("task halted", "task", t.name, "id", t.id)
	k.reschedLocked(t)
}

func (k *Kernel) priorityInUseLocked(p Priority) bool {
	for _, t := range k.tasks {
		if t.base == p {
			return true
		}
	}
	for _, m := range k.mutexes {
		if m.ceiling == p {
			return true
		}
	}
	return false
}

func (k *Kernel) highestBaseLocked() Priority {
	best := MaxPriority
	for _, t := range k.tasks {
		if t.base < best {
			best = t.base
		}
	}
	return best
}

// highestReadyLocked returns the ready or running task with the highest
// effective priority, or nil when the CPU would idle.
func (k *Kernel) highestReadyLocked() *tcb {
	var best *tcb
	for _, t := range k.tasks {
		if t.state != StateReady && t.state != StateRunning {
			continue
		}
		if best == nil || t.prio < best.prio {
			best = t
		}
	}
	return best
}

func (k *Kernel) dispatchLocked(next *tcb) {
	if next == nil {
		k.cur = nil
		k.idle.Broadcast()
		return
	}
	k.cur = next
	next.state = StateRunning
	k.emit(Event{Kind: EventDispatch, Task: next.id, Priority: next.prio})
	next.run <- struct{}{}
}

// reschedLocked hands the CPU to the best candidate. It reports whether self
// lost the CPU.
func (k *Kernel) reschedLocked(self *tcb) bool {
	next := k.highestReadyLocked()
	if next == self {
		return false
	}
	if self.state == StateRunning {
		self.state = StateReady
		k.emit(Event{Kind: EventPreempt, Task: self.id, Priority: self.prio})
	}
	k.dispatchLocked(next)
	return true
}

func (k *Kernel) emit(ev Event) {
	if k.observe == nil {
		return
	}
	ev.Tick = k.tick
	k.observe(ev)
}
