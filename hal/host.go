//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// HostConfig shapes the simulated board.
type HostConfig struct {
	// Out receives serial console bytes. Defaults to os.Stdout.
	Out io.Writer
	// Log receives diagnostic lines. Defaults to os.Stderr.
	Log io.Writer
	// QuietLEDs stops LED transitions from being logged.
	QuietLEDs bool
	// FailMode and FailCalibrate inject accelerometer faults.
	FailMode      bool
	FailCalibrate bool
	// PotPeriod is the sweep period of the simulated pot.
	PotPeriod time.Duration
	// Now is the clock behind the simulated pot.
	Now func() time.Time
}

// Host is the simulated board used by host builds and tests.
type Host struct {
	logger *hostLogger
	gpio   GPIO
	serial Serial
	pot    AnalogIn
	accel  *SimAccelerometer
	t      *hostTime
}

// New returns a host HAL writing the console to stdout.
func New() HAL {
	return NewHost(HostConfig{})
}

// NewHost returns a host HAL configured by cfg.
func NewHost(cfg HostConfig) *Host {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = os.Stderr
	}
	if cfg.PotPeriod <= 0 {
		cfg.PotPeriod = 10 * time.Second
	}
	logger := &hostLogger{w: cfg.Log}
	pins := []GPIOPin{
		newLEDPin("LED1", &hostLED{name: "led1", quiet: cfg.QuietLEDs, logger: logger}),
		newLEDPin("LED2", &hostLED{name: "led2", quiet: cfg.QuietLEDs, logger: logger}),
	}
	return &Host{
		logger: logger,
		gpio:   newVirtualGPIO(pins),
		serial: NewStreamSerial(cfg.Out),
		pot:    newTriangleAnalog(cfg.PotPeriod, cfg.Now),
		accel: NewSimAccelerometer(SimAccelConfig{
			FailMode:      cfg.FailMode,
			FailCalibrate: cfg.FailCalibrate,
		}),
		t: newHostTime(),
	}
}

func (h *Host) Logger() Logger               { return h.logger }
func (h *Host) Serial() Serial               { return h.serial }
func (h *Host) GPIO() GPIO                   { return h.gpio }
func (h *Host) Analog() AnalogIn             { return h.pot }
func (h *Host) Accelerometer() Accelerometer { return h.accel }
func (h *Host) Time() Time                   { return h.t }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	name   string
	on     bool
	quiet  bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	if !l.quiet {
		l.logger.WriteLineString(l.name + ": HIGH")
	}
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	if !l.quiet {
		l.logger.WriteLineString(l.name + ": LOW")
	}
}
