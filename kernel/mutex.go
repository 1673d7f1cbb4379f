package kernel

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Mutex is a binary semaphore with a priority ceiling.
//
// When a task blocks on a mutex held by a lower-priority task, the holder runs
// at the ceiling priority until it releases. Waiters are woken in priority
// order.
type Mutex struct {
	k       *Kernel
	id      int
	ceiling Priority
	owner   *tcb
	waiters []*tcb
}

// CreateMutex creates a mutex whose ceiling reserves the given priority
// level. The ceiling must be higher than every task that will acquire it.
func (k *Kernel) CreateMutex(ceiling Priority) (*Mutex, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if ceiling > MaxPriority {
		return nil, fmt.Errorf("kernel: create mutex: ceiling %d: %w", ceiling, ErrInvalidPriority)
	}
	if k.priorityInUseLocked(ceiling) {
		return nil, fmt.Errorf("kernel: create mutex: ceiling %d: %w", ceiling, ErrPriorityExists)
	}
	m := &Mutex{k: k, id: len(k.mutexes) + 1, ceiling: ceiling}
	k.mutexes = append(k.mutexes, m)
	k.log.Debug("mutex created", "mutex", m.id, "ceiling", ceiling)
	return m, nil
}

// Ceiling returns the ceiling priority.
func (m *Mutex) Ceiling() Priority { return m.ceiling }

// Owner returns the holder, if any.
func (m *Mutex) Owner() (TaskID, bool) {
	m.k.mu.Lock()
	defer m.k.mu.Unlock()
	if m.owner == nil {
		return 0, false
	}
	return m.owner.id, true
}

// Waiters returns the blocked tasks in wake-up order.
func (m *Mutex) Waiters() []TaskID {
	m.k.mu.Lock()
	defer m.k.mu.Unlock()
	ids := make([]TaskID, 0, len(m.waiters))
	for _, w := range m.waiters {
		ids = append(ids, w.id)
	}
	return ids
}

// Pend acquires m, blocking until the caller is the sole holder or until
// timeout ticks pass. A zero timeout waits forever.
func (c *Context) Pend(m *Mutex, timeout uint32) error {
	k, t := c.k, c.t
	if m == nil || m.k != k {
		return ErrInvalidMutex
	}
	k.enter()

	var err error
	switch {
	case t.base <= m.ceiling:
		err = fmt.Errorf("kernel: pend mutex %d from %q: %w", m.id, t.name, ErrCeiling)
	case m.owner == t:
		err = ErrRecursive
	case m.owner == nil:
		k.grantLocked(m, t)
	default:
		t.state = StateBlocked
		t.pend = m
		t.pendErr = nil
		if timeout > 0 {
			t.wake = k.tick + uint64(timeout)
		}
		m.enqueue(t)
		k.emit(Event{Kind: EventBlock, Task: t.id, Priority: t.prio, Mutex: m.id})
		k.reprioritizeLocked(m.owner)
		k.leave(t)
		// Post or a tick timeout set pendErr before dispatching us.
		return t.pendErr
	}
	k.leave(t)
	return err
}

// Post releases m and hands it to the highest-priority waiter.
func (c *Context) Post(m *Mutex) error {
	k, t := c.k, c.t
	if m == nil || m.k != k {
		return ErrInvalidMutex
	}
	k.enter()
	if m.owner != t {
		k.leave(t)
		return ErrNotOwner
	}

	if i := slices.Index(t.held, m); i >= 0 {
		t.held = slices.Delete(t.held, i, i+1)
	}
	m.owner = nil
	k.emit(Event{Kind: EventRelease, Task: t.id, Priority: t.prio, Mutex: m.id})

	if len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = slices.Delete(m.waiters, 0, 1)
		w.pend = nil
		w.wake = 0
		w.pendErr = nil
		w.state = StateReady
		k.grantLocked(m, w)
		k.reprioritizeLocked(w)
	}
	k.reprioritizeLocked(t)
	k.leave(t)
	return nil
}

func (k *Kernel) grantLocked(m *Mutex, t *tcb) {
	m.owner = t
	t.held = append(t.held, m)
	k.emit(Event{Kind: EventAcquire, Task: t.id, Priority: t.prio, Mutex: m.id})
}

// timeoutLocked removes a blocked task from its wait set after its deadline.
func (k *Kernel) timeoutLocked(t *tcb) {
	m := t.pend
	m.remove(t)
	t.pend = nil
	t.wake = 0
	t.pendErr = fmt.Errorf("kernel: pend mutex %d from %q: %w", m.id, t.name, ErrTimeout)
	t.state = StateReady
	k.emit(Event{Kind: EventTimeout, Task: t.id, Priority: t.prio, Mutex: m.id})
	if m.owner != nil {
		k.reprioritizeLocked(m.owner)
	}
}

// reprioritizeLocked recomputes the effective priority of t from the mutexes
// it holds.
func (k *Kernel) reprioritizeLocked(t *tcb) {
	p := t.base
	for _, m := range t.held {
		if len(m.waiters) == 0 || m.waiters[0].prio >= t.base {
			continue
		}
		if m.ceiling < p {
			p = m.ceiling
		}
	}
	if p == t.prio {
		return
	}
	t.prio = p
	k.emit(Event{Kind: EventPriority, Task: t.id, Priority: p})
	if t.pend != nil {
		t.pend.remove(t)
		t.pend.enqueue(t)
		if t.pend.owner != nil {
			k.reprioritizeLocked(t.pend.owner)
		}
	}
}

func (m *Mutex) enqueue(t *tcb) {
	i, _ := slices.BinarySearchFunc(m.waiters, t, func(a, b *tcb) int {
		return int(a.prio) - int(b.prio)
	})
	m.waiters = slices.Insert(m.waiters, i, t)
}

func (m *Mutex) remove(t *tcb) {
	if i := slices.Index(m.waiters, t); i >= 0 {
		m.waiters = slices.Delete(m.waiters, i, i+1)
	}
}
