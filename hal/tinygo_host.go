//go:build tinygo && !baremetal

package hal

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

type tinyGoHostHAL struct {
	logger *tinyGoHostLogger
	gpio   GPIO
	serial Serial
	pot    AnalogIn
	accel  Accelerometer
	t      *tinyGoHostTime
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU pin mapping.
func New() HAL {
	l := &tinyGoHostLogger{}
	return &tinyGoHostHAL{
		logger: l,
		gpio: newVirtualGPIO([]GPIOPin{
			newLEDPin("LED1", &tinyGoHostLED{name: "led1", logger: l}),
			newLEDPin("LED2", &tinyGoHostLED{name: "led2", logger: l}),
		}),
		serial: NewStreamSerial(os.Stdout),
		pot:    newTriangleAnalog(10*time.Second, nil),
		accel:  NewSimAccelerometer(SimAccelConfig{}),
		t:      newTinyGoHostTime(),
	}
}

func (h *tinyGoHostHAL) Logger() Logger               { return h.logger }
func (h *tinyGoHostHAL) Serial() Serial               { return h.serial }
func (h *tinyGoHostHAL) GPIO() GPIO                   { return h.gpio }
func (h *tinyGoHostHAL) Analog() AnalogIn             { return h.pot }
func (h *tinyGoHostHAL) Accelerometer() Accelerometer { return h.accel }
func (h *tinyGoHostHAL) Time() Time                   { return h.t }

type tinyGoHostTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoHostTime() *tinyGoHostTime {
	t := &tinyGoHostTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoHostTime) Ticks() <-chan uint64 { return t.ch }

type tinyGoHostLogger struct{}

func (l *tinyGoHostLogger) WriteLineString(s string) {
	println(s)
}

func (l *tinyGoHostLogger) WriteLineBytes(b []byte) {
	println(string(b))
}

type tinyGoHostLED struct {
	name   string
	on     bool
	logger *tinyGoHostLogger
}

func (l *tinyGoHostLED) High() {
	l.on = true
	l.logger.WriteLineString(fmt.Sprintf("%s: HIGH (tinygo/%s)", l.name, runtime.GOOS))
}

func (l *tinyGoHostLED) Low() {
	l.on = false
	l.logger.WriteLineString(fmt.Sprintf("%s: LOW (tinygo/%s)", l.name, runtime.GOOS))
}
