//go:build tinygo && baremetal

package hal

import (
	"fmt"
	"machine"
	"time"
)

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
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

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

type byteWriter interface {
	WriteByte(c byte) error
}

type uartLogger struct {
	w byteWriter
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.w.WriteByte(s[i])
	}
	l.w.WriteByte('\r')
	l.w.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.w.WriteByte(b[i])
	}
	l.w.WriteByte('\r')
	l.w.WriteByte('\n')
}

// machinePin drives a board pin as a push-pull output.
type machinePin struct {
	name  string
	pin   machine.Pin
	level bool
}

func newMachinePin(name string, pin machine.Pin) GPIOPin {
	return &machinePin{name: name, pin: pin}
}

func (p *machinePin) Name() string   { return p.name }
func (p *machinePin) Caps() GPIOCaps { return GPIOCapOutput }

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	if mode != GPIOModeOutput || pull != GPIOPullNone {
		return fmt.Errorf("gpio: pin %s: only output supported", p.name)
	}
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.level, nil }

func (p *machinePin) Write(level bool) error {
	p.level = level
	p.pin.Set(level)
	return nil
}

type adcAnalog struct {
	adc machine.ADC
}

// Read scales the 16-bit ADC sample to [0, 1].
func (a *adcAnalog) Read() float32 {
	return float32(a.adc.Get()) / 65535
}

type uartSerial struct {
	uart       *machine.UART
	configured bool
}

func (s *uartSerial) Configure(cfg SerialConfig) error {
	if s.uart == nil {
		return ErrNotImplemented
	}
	if err := s.uart.Configure(machine.UARTConfig{
		BaudRate: cfg.BaudRate,
		TX:       machine.GP0,
		RX:       machine.GP1,
	}); err != nil {
		return err
	}
	s.configured = true
	return nil
}

func (s *uartSerial) Write(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	if !s.configured {
		return 0, ErrNotConfigured
	}
	return s.uart.Write(p)
}
