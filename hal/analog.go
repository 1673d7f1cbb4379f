package hal

import "time"

// triangleAnalog sweeps [0, 1] and back once per period.
type triangleAnalog struct {
	start  time.Time
	period time.Duration
	now    func() time.Time
}

func newTriangleAnalog(period time.Duration, now func() time.Time) *triangleAnalog {
	if now == nil {
		now = time.Now
	}
	if period <= 0 {
		period = time.Second
	}
	return &triangleAnalog{start: now(), period: period, now: now}
}

func (a *triangleAnalog) Read() float32 {
	elapsed := a.now().Sub(a.start)
	if elapsed < 0 {
		elapsed = 0
	}
	phase := float32(elapsed%a.period) / float32(a.period)
	if phase < 0.5 {
		return phase * 2
	}
	return (1 - phase) * 2
}

// FixedAnalog reads a constant level, clamped to [0, 1].
type FixedAnalog float32

func (f FixedAnalog) Read() float32 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return float32(f)
}
