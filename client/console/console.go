// Package console serializes formatted output from several tasks onto one
// serial stream.
package console

import (
	"errors"
	"fmt"
	"io"

	"rtsense/kernel"
)

// ErrDetached is returned when the gate has no mutex attached.
var ErrDetached = errors.New("console: no mutex attached")

// Gate pairs a kernel mutex with the stream it protects. Every byte written
// through a Gate is written while holding the mutex, so lines from different
// tasks never interleave.
type Gate struct {
	w    io.Writer
	m    *kernel.Mutex
	fifo int
	buf  []byte
}

// Option configures a Gate.
type Option func(*Gate)

// WithFIFO splits writes into chunks of n bytes and waits one tick between
// chunks, the way a UART drains its transmit FIFO.
func WithFIFO(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.fifo = n
		}
	}
}

// New returns a gate over w. Attach must be called before use.
func New(w io.Writer, opts ...Option) *Gate {
	g := &Gate{w: w}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attach binds the mutex guarding the stream.
func (g *Gate) Attach(m *kernel.Mutex) { g.m = m }

// Mutex returns the attached mutex, or nil.
func (g *Gate) Mutex() *kernel.Mutex { return g.m }

// Printf formats and writes one message while holding the gate.
func (g *Gate) Printf(ctx *kernel.Context, format string, args ...any) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	g.buf = fmt.Appendf(g.buf[:0], format, args...)
	err := g.emit(ctx, g.buf)
	return g.release(ctx, err)
}

// Write writes p while holding the gate.
func (g *Gate) Write(ctx *kernel.Context, p []byte) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	err := g.emit(ctx, p)
	return g.release(ctx, err)
}

func (g *Gate) acquire(ctx *kernel.Context) error {
	if g.m == nil {
		return ErrDetached
	}
	if err := ctx.Pend(g.m, 0); err != nil {
		return fmt.Errorf("console: acquire: %w", err)
	}
	return nil
}

func (g *Gate) release(ctx *kernel.Context, err error) error {
	if perr := ctx.Post(g.m); perr != nil && err == nil {
		err = fmt.Errorf("console: release: %w", perr)
	}
	return err
}

// emit writes p in FIFO-sized chunks. The caller must hold the gate.
func (g *Gate) emit(ctx *kernel.Context, p []byte) error {
	for len(p) > 0 {
		n := len(p)
		if g.fifo > 0 && n > g.fifo {
			n = g.fifo
		}
		if _, err := g.w.Write(p[:n]); err != nil {
			return fmt.Errorf("console: write: %w", err)
		}
		p = p[n:]
		if len(p) > 0 && g.fifo > 0 {
			ctx.Delay(1)
		}
	}
	return nil
}
