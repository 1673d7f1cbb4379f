package kernel

import (
	"errors"
	"sync"
	"testing"
)

func mustMutex(t *testing.T, k *Kernel, ceiling Priority) *Mutex {
	t.Helper()
	m, err := k.CreateMutex(ceiling)
	if err != nil {
		t.Fatalf("CreateMutex(%d): %v", ceiling, err)
	}
	return m
}

func TestMutexWakesHighestPriorityWaiter(t *testing.T) {
	k := newTestKernel(t)
	m := mustMutex(t, k, 2)

	var order []string
	low := mustTask(t, k, "low", 10, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		c.Delay(5)
		if err := c.Post(m); err != nil {
			panic(err)
		}
		c.Halt()
	})
	waiter := func(name string, delay uint32, arm bool) TaskFunc {
		return func(c *Context) {
			if arm {
				if err := c.ArmTick(); err != nil {
					panic(err)
				}
			}
			c.Delay(delay)
			if err := c.Pend(m, 0); err != nil {
				panic(err)
			}
			order = append(order, name)
			if err := c.Post(m); err != nil {
				panic(err)
			}
			c.Halt()
		}
	}
	mid := mustTask(t, k, "mid", 8, waiter("mid", 1, false))
	top := mustTask(t, k, "top", 5, waiter("top", 2, true))

	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.WaitIdle()
	if owner, ok := m.Owner(); !ok || owner != low {
		t.Fatalf("Owner() = %d, %v, want %d, true", owner, ok, low)
	}

	k.Advance(2)
	waiters := m.Waiters()
	if len(waiters) != 2 || waiters[0] != top || waiters[1] != mid {
		t.Fatalf("Waiters() = %v, want [%d %d]", waiters, top, mid)
	}
	if p := k.TaskPriority(low); p != m.Ceiling() {
		t.Fatalf("holder priority = %d, want ceiling %d", p, m.Ceiling())
	}

	k.Advance(3)
	if len(order) != 2 || order[0] != "top" || order[1] != "mid" {
		t.Fatalf("acquire order = %v, want [top mid]", order)
	}
	if p := k.TaskPriority(low); p != 10 {
		t.Fatalf("holder priority after release = %d, want 10", p)
	}
	if _, ok := m.Owner(); ok {
		t.Fatal("Owner() ok = true after all releases, want false")
	}
}

func TestMutexHolderInheritsCeilingOnlyUnderContention(t *testing.T) {
	var mu sync.Mutex
	var raised []Priority
	observe := func(ev Event) {
		if ev.Kind != EventPriority {
			return
		}
		mu.Lock()
		raised = append(raised, ev.Priority)
		mu.Unlock()
	}
	k := newTestKernel(t, WithObserver(observe))
	m := mustMutex(t, k, 3)

	// Below the holder: no boost.
	mustTask(t, k, "holder", 6, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		c.Delay(4)
		if err := c.Post(m); err != nil {
			panic(err)
		}
		c.Halt()
	})
	mustTask(t, k, "lower", 7, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		if err := c.Post(m); err != nil {
			panic(err)
		}
		c.Halt()
	})
	// Above the holder: boost to the ceiling.
	mustTask(t, k, "higher", 4, func(c *Context) {
		if err := c.ArmTick(); err != nil {
			panic(err)
		}
		c.Delay(2)
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		if err := c.Post(m); err != nil {
			panic(err)
		}
		c.Halt()
	})

	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.Advance(1)
	mu.Lock()
	if len(raised) != 0 {
		mu.Unlock()
		t.Fatalf("priority changes with only a lower waiter = %v, want none", raised)
	}
	mu.Unlock()

	k.Advance(5)
	mu.Lock()
	defer mu.Unlock()
	if len(raised) != 2 || raised[0] != 3 || raised[1] != 6 {
		t.Fatalf("priority changes = %v, want [3 6]", raised)
	}
}

func TestMutexPostByNonOwner(t *testing.T) {
	k := newTestKernel(t)
	m := mustMutex(t, k, 1)

	mustTask(t, k, "owner", 3, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		c.Halt()
	})
	var err error
	mustTask(t, k, "thief", 4, func(c *Context) {
		err = c.Post(m)
		c.Halt()
	})

	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.WaitIdle()

	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Post() = %v, want %v", err, ErrNotOwner)
	}
}

func TestMutexRejectsTaskAboveCeiling(t *testing.T) {
	k := newTestKernel(t)
	m := mustMutex(t, k, 3)

	var err error
	mustTask(t, k, "eager", 2, func(c *Context) {
		err = c.Pend(m, 0)
		c.Halt()
	})
	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.WaitIdle()

	if !errors.Is(err, ErrCeiling) {
		t.Fatalf("Pend() = %v, want %v", err, ErrCeiling)
	}
	if _, ok := m.Owner(); ok {
		t.Fatal("Owner() ok = true, want false")
	}
}

func TestMutexRecursivePend(t *testing.T) {
	k := newTestKernel(t)
	m := mustMutex(t, k, 1)

	var err error
	mustTask(t, k, "twice", 2, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		err = c.Pend(m, 0)
		c.Halt()
	})
	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.WaitIdle()

	if !errors.Is(err, ErrRecursive) {
		t.Fatalf("second Pend() = %v, want %v", err, ErrRecursive)
	}
}

func TestMutexPendTimeout(t *testing.T) {
	k := newTestKernel(t)
	m := mustMutex(t, k, 1)

	var err error
	var waited uint64
	mustTask(t, k, "waiter", 3, func(c *Context) {
		if err := c.ArmTick(); err != nil {
			panic(err)
		}
		c.Delay(1)
		start := c.NowTick()
		err = c.Pend(m, 3)
		waited = c.NowTick() - start
		c.Halt()
	})
	mustTask(t, k, "hog", 5, func(c *Context) {
		if err := c.Pend(m, 0); err != nil {
			panic(err)
		}
		c.Halt()
	})

	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.Advance(6)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Pend() = %v, want %v", err, ErrTimeout)
	}
	if waited != 3 {
		t.Fatalf("waited %d ticks, want 3", waited)
	}
	if w := m.Waiters(); len(w) != 0 {
		t.Fatalf("Waiters() = %v, want none", w)
	}
}

func TestMutexSingleHolder(t *testing.T) {
	var mu sync.Mutex
	holders, maxHolders, acquired := 0, 0, 0
	observe := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case EventAcquire:
			holders++
			acquired++
			if holders > maxHolders {
				maxHolders = holders
			}
		case EventRelease:
			holders--
		}
	}
	k := newTestKernel(t, WithObserver(observe))
	m := mustMutex(t, k, 0)

	for i := 1; i <= 5; i++ {
		i := i
		mustTask(t, k, "worker", Priority(i), func(c *Context) {
			if i == 1 {
				if err := c.ArmTick(); err != nil {
					panic(err)
				}
			}
			for {
				if err := c.Pend(m, 0); err != nil {
					panic(err)
				}
				c.Delay(1)
				if err := c.Post(m); err != nil {
					panic(err)
				}
				c.Delay(uint32(i%3 + 1))
			}
		})
	}

	if err := k.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	k.Advance(200)

	mu.Lock()
	defer mu.Unlock()
	if maxHolders != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxHolders)
	}
	if acquired < 50 {
		t.Fatalf("acquired = %d, want contention to keep the mutex busy", acquired)
	}
}
