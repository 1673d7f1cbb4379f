//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the host tick pump.
type HeadlessConfig struct {
	// Hz is how often the pump samples the wall clock.
	Hz int
	// Ticks stops the run after this many 1 ms ticks. Zero runs until ctx
	// is done.
	Ticks uint64
}

// RunHeadless pumps h's tick stream from the wall clock while run executes.
// It returns nil once cfg.Ticks ticks have been delivered.
func RunHeadless(ctx context.Context, h *Host, run func(context.Context) error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 1000
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		cancel()
		return err
	})
	g.Go(func() error {
		defer cancel()
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if seq := h.t.step(1); cfg.Ticks > 0 && seq >= cfg.Ticks {
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return parent.Err()
}
