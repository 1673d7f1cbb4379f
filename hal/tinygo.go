//go:build tinygo && baremetal

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	gpio   GPIO
	serial *uartSerial
	pot    *adcAnalog
	accel  *MMA7455
	t      *tinyGoTime
}

// New returns a Pico (RP2040/RP2350) HAL implementation.
//
// Console: UART0 on GP0 (TX) / GP1 (RX), configured by the caller.
// Diagnostics: machine.Serial (USB CDC).
// LED1: on-board LED. LED2: GP15. Pot: ADC0 (GP26).
// MMA7455: I2C0 on GP4 (SDA) / GP5 (SCL), 400 kHz.
func New() HAL {
	led1 := machine.LED
	led2 := machine.GP15

	bus := machine.I2C0
	bus.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 400 * machine.KHz,
	})

	machine.InitADC()
	adc := machine.ADC{Pin: machine.ADC0}
	adc.Configure(machine.ADCConfig{})

	return &tinyGoHAL{
		logger: &uartLogger{w: machine.Serial},
		gpio: newVirtualGPIO([]GPIOPin{
			newMachinePin("LED1", led1),
			newMachinePin("LED2", led2),
		}),
		serial: &uartSerial{uart: machine.UART0},
		pot:    &adcAnalog{adc: adc},
		accel:  NewMMA7455(bus),
		t:      newTinyGoTime(),
	}
}

func (h *tinyGoHAL) Logger() Logger               { return h.logger }
func (h *tinyGoHAL) Serial() Serial               { return h.serial }
func (h *tinyGoHAL) GPIO() GPIO                   { return h.gpio }
func (h *tinyGoHAL) Analog() AnalogIn             { return h.pot }
func (h *tinyGoHAL) Accelerometer() Accelerometer { return h.accel }
func (h *tinyGoHAL) Time() Time                   { return h.t }
