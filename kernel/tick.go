package kernel

// Tick advances the time base by one tick and readies expired delays and
// pend timeouts. Ticks before ArmTick are ignored, as a timer that was never
// configured raises no interrupt.
//
// If the CPU is idle the highest-priority ready task is dispatched at once.
// Otherwise the running task is preempted at its next service call.
func (k *Kernel) Tick() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.started || k.closed || !k.armed {
		return
	}
	k.tick++
	for _, t := range k.tasks {
		if t.wake == 0 || t.wake > k.tick {
			continue
		}
		switch t.state {
		case StateDelayed:
			t.wake = 0
			t.state = StateReady
			k.emit(Event{Kind: EventWake, Task: t.id, Priority: t.prio})
		case StateBlocked:
			k.timeoutLocked(t)
		}
	}
	if k.cur == nil {
		k.dispatchLocked(k.highestReadyLocked())
	}
}

// WaitIdle blocks until no task holds the CPU.
func (k *Kernel) WaitIdle() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for k.started && !k.closed && k.cur != nil {
		k.idle.Wait()
	}
}

// Advance delivers n ticks, letting the task set settle after each one.
// It gives tests a deterministic time base.
func (k *Kernel) Advance(n int) {
	k.WaitIdle()
	for i := 0; i < n; i++ {
		k.Tick()
		k.WaitIdle()
	}
}

// drainTicks drops ticks raised before the source was armed.
func drainTicks(ch <-chan uint64) {
	if ch == nil {
		return
	}
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// pump forwards hardware ticks to Tick.
func (k *Kernel) pump(ch <-chan uint64) {
	if ch == nil {
		return
	}
	for {
		select {
		case <-k.done:
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			k.Tick()
		}
	}
}
