package kernel

import (
	"fmt"
	"math"
	"time"
)

// Context provides task-local access to kernel services.
type Context struct {
	k *Kernel
	t *tcb
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.t.id }

// Name returns the current task name.
func (c *Context) Name() string { return c.t.name }

// Priority returns the current effective priority.
func (c *Context) Priority() Priority {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	return c.t.prio
}

// NowTick returns the current tick count.
func (c *Context) NowTick() uint64 {
	return c.k.Now()
}

// Delay suspends the task for at least ticks ticks. Delay(0) only offers the
// CPU to a higher-priority ready task.
//
// Delaying before the tick source is armed is a fault: the panic handler runs
// and the task halts.
func (c *Context) Delay(ticks uint32) {
	k, t := c.k, c.t
	k.enter()
	if ticks > 0 {
		if !k.armed {
			k.mu.Unlock()
			k.fault(t, ErrTickNotArmed)
		}
		t.state = StateDelayed
		t.wake = k.tick + uint64(ticks)
		k.emit(Event{Kind: EventDelay, Task: t.id, Priority: t.prio})
	}
	k.leave(t)
}

// DelayFor suspends the task for at least d.
func (c *Context) DelayFor(d time.Duration) {
	c.Delay(c.k.DurationToTicks(d))
}

// Halt moves the task into its terminal state. It never returns; other
// tasks keep running.
func (c *Context) Halt() {
	k, t := c.k, c.t
	k.enter()
	k.haltLocked(t)
	k.mu.Unlock()
	for {
		k.park(t)
	}
}

// ArmTick starts the tick source. It must be called once, by the
// highest-priority task, before any task delays.
func (c *Context) ArmTick() error {
	k, t := c.k, c.t
	k.enter()
	var err error
	switch {
	case k.armed:
		err = ErrTickArmed
	case t.base != k.highestBaseLocked():
		err = fmt.Errorf("kernel: arm tick from %q: %w", t.name, ErrNotHighest)
	default:
		k.armed = true
		if k.src != nil {
			ch := k.src.Ticks()
			drainTicks(ch)
			go k.pump(ch)
		}
		k.log.Info("tick armed", "task", t.name, "tick_hz", k.tickRate)
	}
	k.leave(t)
	return err
}

// DurationToTicks converts d to ticks, rounding up so a delay is never
// shorter than requested.
func (k *Kernel) DurationToTicks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	per := time.Second / time.Duration(k.tickRate)
	if per <= 0 {
		per = 1
	}
	ticks := (d + per - 1) / per
	if ticks > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ticks)
}
