package hal

import (
	"tinygo.org/x/drivers"
)

// MMA7455 registers.
const (
	mmaAddress = 0x1D

	mmaXOut8  = 0x06
	mmaStatus = 0x09
	mmaWhoAmI = 0x0F
	mmaXOffL  = 0x10
	mmaMCTL   = 0x16

	mmaMCTLStandby = 0x00
	mmaMCTL2gMeas  = 0x05

	// 8-bit output in 2 g mode.
	mmaCountsPerG = 64
)

// MMA7455 is a 3-axis accelerometer on an I2C bus, read in 8-bit 2 g mode.
type MMA7455 struct {
	bus     drivers.I2C
	addr    uint16
	mode    AccelMode
	x, y, z int32
	buf     [7]byte
}

// NewMMA7455 returns a driver for the sensor at its fixed bus address.
func NewMMA7455(bus drivers.I2C) *MMA7455 {
	return &MMA7455{bus: bus, addr: mmaAddress}
}

// SetMode writes the mode control register and verifies it reads back.
func (d *MMA7455) SetMode(mode AccelMode) bool {
	v := byte(mmaMCTLStandby)
	if mode == AccelModeMeasurement {
		v = mmaMCTL2gMeas
	}
	if err := d.write(mmaMCTL, v); err != nil {
		return false
	}
	got, err := d.read(mmaMCTL, 1)
	if err != nil || got[0] != v {
		return false
	}
	d.mode = mode
	return true
}

// Calibrate zeroes X and Y and sets Z to 1 g, assuming the board lies flat.
func (d *MMA7455) Calibrate() bool {
	if d.mode != AccelModeMeasurement {
		return false
	}
	if err := d.Update(drivers.Acceleration); err != nil {
		return false
	}
	offs := [3]int32{-2 * d.x, -2 * d.y, -2 * (d.z - mmaCountsPerG)}
	var w [6]byte
	for i, o := range offs {
		// 10-bit two's complement, low byte first.
		u := uint16(o) & 0x03FF
		w[2*i] = byte(u)
		w[2*i+1] = byte(u >> 8)
	}
	if err := d.write(mmaXOffL, w[:]...); err != nil {
		return false
	}
	got, err := d.read(mmaXOffL, len(w))
	if err != nil {
		return false
	}
	for i := range w {
		if got[i] != w[i] {
			return false
		}
	}
	return true
}

// Update reads a sample when which includes drivers.Acceleration.
func (d *MMA7455) Update(which drivers.Measurement) error {
	if which&drivers.Acceleration == 0 {
		return nil
	}
	if d.mode != AccelModeMeasurement {
		return ErrNotConfigured
	}
	b, err := d.read(mmaXOut8, 3)
	if err != nil {
		return err
	}
	d.x, d.y, d.z = int32(int8(b[0])), int32(int8(b[1])), int32(int8(b[2]))
	return nil
}

// Acceleration returns the last sample in counts (64 per g).
func (d *MMA7455) Acceleration() (x, y, z int32) {
	return d.x, d.y, d.z
}

func (d *MMA7455) write(reg byte, data ...byte) error {
	d.buf[0] = reg
	n := copy(d.buf[1:], data)
	return d.bus.Tx(d.addr, d.buf[:n+1], nil)
}

func (d *MMA7455) read(reg byte, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := d.bus.Tx(d.addr, []byte{reg}, r); err != nil {
		return nil, err
	}
	return r, nil
}
