package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rtsense/client/console"
	"rtsense/hal"
	"rtsense/kernel"
	"rtsense/tasks/accel"
	"rtsense/tasks/blink"
	"rtsense/tasks/pot"
)

// Priority table. Lower is more urgent.
const (
	PrioLED1           kernel.Priority = 4
	PrioLED2           kernel.Priority = 5
	PrioConsoleCeiling kernel.Priority = 6
	PrioPot            kernel.Priority = 7
	PrioAccel          kernel.Priority = 8
)

const (
	StackWords  = 256
	Period      = 500 * time.Millisecond
	BaudRate    = 115200
	TickRate    = kernel.DefaultTickRate
	ConsoleFIFO = 16
)

var ErrSchedulerReturned = errors.New("app: scheduler returned")

type config struct {
	log     *slog.Logger
	observe func(kernel.Event)
	manual  bool
	booted  func(*System)
}

type Option func(*config)

// WithLogger routes kernel lifecycle logs to l.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }

// WithObserver receives every scheduler event.
func WithObserver(fn func(kernel.Event)) Option { return func(c *config) { c.observe = fn } }

// WithManualTicks leaves the tick unconnected from the board so callers
// step time with Kernel().Advance.
func WithManualTicks() Option { return func(c *config) { c.manual = true } }

// WithBooted calls fn from Run once the task set exists, before the
// scheduler starts.
func WithBooted(fn func(*System)) Option { return func(c *config) { c.booted = fn } }

// System is a booted task set, ready to start.
type System struct {
	k     *kernel.Kernel
	gate  *console.Gate
	accel *accel.Task
	ids   map[string]kernel.TaskID
}

func (s *System) Kernel() *kernel.Kernel { return s.k }
func (s *System) Gate() *console.Gate    { return s.gate }
func (s *System) Accel() *accel.Task     { return s.accel }

// Task returns the ID of a task by name: "led1", "led2", "pot" or "accel".
func (s *System) Task(name string) (kernel.TaskID, bool) {
	id, ok := s.ids[name]
	return id, ok
}

// Boot configures the board and creates every task and the console mutex
// without starting the scheduler.
func Boot(h hal.HAL, opts ...Option) (*System, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	serial := h.Serial()
	if err := serial.Configure(hal.SerialConfig{BaudRate: BaudRate}); err != nil {
		return nil, fmt.Errorf("app: configure serial: %w", err)
	}

	kopts := []kernel.Option{kernel.WithTickRate(TickRate)}
	if !cfg.manual {
		kopts = append(kopts, kernel.WithTickSource(h.Time()))
	}
	if cfg.log != nil {
		kopts = append(kopts, kernel.WithLogger(cfg.log))
	}
	if cfg.observe != nil {
		kopts = append(kopts, kernel.WithObserver(cfg.observe))
	}
	k := kernel.New(kopts...)

	gate := console.New(serial, console.WithFIFO(ConsoleFIFO))
	gpio := h.GPIO()
	s := &System{
		k:     k,
		gate:  gate,
		accel: accel.New(h.Accelerometer(), gate, Period),
		ids:   make(map[string]kernel.TaskID),
	}

	specs := []kernel.TaskSpec{
		{Name: "led1", Priority: PrioLED1, Entry: blink.New(gpio.Pin(hal.PinLED1), Period, blink.WithTickArm()).Run},
		{Name: "led2", Priority: PrioLED2, Entry: blink.New(gpio.Pin(hal.PinLED2), Period, blink.WithOrder(blink.DelayFirst)).Run},
		{Name: "pot", Priority: PrioPot, Entry: pot.New(h.Analog(), gate, Period).Run},
		{Name: "accel", Priority: PrioAccel, Entry: s.accel.Run},
	}
	for _, spec := range specs {
		spec.StackWords = StackWords
		id, err := k.CreateTask(spec)
		if err != nil {
			return nil, fmt.Errorf("app: create task %s: %w", spec.Name, err)
		}
		s.ids[spec.Name] = id
	}

	m, err := k.CreateMutex(PrioConsoleCeiling)
	if err != nil {
		return nil, fmt.Errorf("app: create console mutex: %w", err)
	}
	gate.Attach(m)
	return s, nil
}

// Run boots the task set and runs the scheduler until ctx is done. On a
// device ctx is never done, so any return is a failure.
func Run(ctx context.Context, h hal.HAL, opts ...Option) error {
	installPanicHandler(h)
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := Boot(h, opts...)
	if err != nil {
		return err
	}
	if cfg.booted != nil {
		cfg.booted(s)
	}
	err = s.k.Start(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSchedulerReturned, err)
}
