package hal

import (
	"sync"

	"tinygo.org/x/drivers"
)

// SimAccelConfig shapes a simulated accelerometer.
type SimAccelConfig struct {
	// FailMode makes SetMode report failure.
	FailMode bool
	// FailCalibrate makes Calibrate report failure.
	FailCalibrate bool
	// Sample produces the n-th reading. Nil yields a slow wobble around 1 g
	// on the Z axis.
	Sample func(n uint64) (x, y, z int32)
}

// SimAccelerometer is an in-memory 3-axis sensor.
type SimAccelerometer struct {
	mu         sync.Mutex
	cfg        SimAccelConfig
	mode       AccelMode
	calibrated bool
	n          uint64
	x, y, z    int32
}

// NewSimAccelerometer returns a simulated sensor in standby.
func NewSimAccelerometer(cfg SimAccelConfig) *SimAccelerometer {
	if cfg.Sample == nil {
		cfg.Sample = wobble
	}
	return &SimAccelerometer{cfg: cfg}
}

func (a *SimAccelerometer) SetMode(mode AccelMode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg.FailMode {
		return false
	}
	a.mode = mode
	return true
}

func (a *SimAccelerometer) Calibrate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg.FailCalibrate || a.mode != AccelModeMeasurement {
		return false
	}
	a.calibrated = true
	return true
}

// Update samples the sensor. Only drivers.Acceleration is supported.
func (a *SimAccelerometer) Update(which drivers.Measurement) error {
	if which&drivers.Acceleration == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != AccelModeMeasurement {
		return ErrNotConfigured
	}
	a.x, a.y, a.z = a.cfg.Sample(a.n)
	a.n++
	return nil
}

func (a *SimAccelerometer) Acceleration() (x, y, z int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.x, a.y, a.z
}

// Mode returns the current operating mode.
func (a *SimAccelerometer) Mode() AccelMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// 64 counts per g in 2 g measurement mode.
func wobble(n uint64) (x, y, z int32) {
	step := int32(n % 8)
	if step >= 4 {
		step = 8 - step
	}
	return step, -step, 64 + step
}
