package hal

import (
	"errors"
	"io"

	"tinygo.org/x/drivers"
)

// Logger writes newline-delimited diagnostic lines outside the serial console.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrNotConfigured  = errors.New("not configured")
)

// SerialConfig is applied once before the scheduler starts.
type SerialConfig struct {
	BaudRate uint32
}

// Serial is the byte-oriented console stream. It has no flow control and
// makes no promise about interleaving of concurrent writers.
type Serial interface {
	io.Writer
	Configure(cfg SerialConfig) error
}

// AnalogIn samples an analog input, normalized to [0, 1].
type AnalogIn interface {
	Read() float32
}

// AccelMode selects the accelerometer operating mode.
type AccelMode uint8

const (
	AccelModeStandby AccelMode = iota
	AccelModeMeasurement
)

// Accelerometer is a 3-axis sensor. Readings follow the drivers.Sensor
// contract: Update(drivers.Acceleration) samples, Acceleration returns the
// last sample in raw counts.
type Accelerometer interface {
	drivers.Sensor
	SetMode(mode AccelMode) bool
	Calibrate() bool
	Acceleration() (x, y, z int32)
}

// Time provides a base tick stream, one value per 1 ms tick.
type Time interface {
	Ticks() <-chan uint64
}

// Board pins exposed through GPIO.
const (
	PinLED1 = iota
	PinLED2
)

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Logger() Logger
	Serial() Serial
	GPIO() GPIO
	Analog() AnalogIn
	Accelerometer() Accelerometer
	Time() Time
}
