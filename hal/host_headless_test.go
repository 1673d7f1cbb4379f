//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func newTestHost() *Host {
	var out, log bytes.Buffer
	return NewHost(HostConfig{Out: &out, Log: &log})
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	h := newTestHost()
	var got uint64
	run := func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case seq := <-h.Time().Ticks():
				got = seq
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RunHeadless(ctx, h, run, HeadlessConfig{Ticks: 5}); err != nil {
		t.Fatalf("RunHeadless() = %v, want nil", err)
	}
	if got == 0 {
		t.Fatal("no ticks delivered")
	}
}

func TestRunHeadlessReturnsRunError(t *testing.T) {
	h := newTestHost()
	boom := errors.New("boom")
	err := RunHeadless(context.Background(), h, func(context.Context) error { return boom }, HeadlessConfig{})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() = %v, want %v", err, boom)
	}
}

func TestRunHeadlessParentCancel(t *testing.T) {
	h := newTestHost()
	ctx, cancel := context.WithCancel(context.Background())
	run := func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	if err := RunHeadless(ctx, h, run, HeadlessConfig{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("RunHeadless() = %v, want %v", err, context.Canceled)
	}
}

func TestHostLEDPins(t *testing.T) {
	var log bytes.Buffer
	h := NewHost(HostConfig{Out: &bytes.Buffer{}, Log: &log})

	pin := h.GPIO().Pin(PinLED1)
	if pin == nil {
		t.Fatal("LED1 pin missing")
	}
	if err := pin.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Toggle(pin); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}
	if got, want := log.String(), "led1: HIGH\nled1: LOW\n"; got != want {
		t.Fatalf("log = %q, want %q", got, want)
	}
}

func TestHostBoardPins(t *testing.T) {
	h := NewHost(HostConfig{Out: &bytes.Buffer{}, Log: &bytes.Buffer{}})
	if n := h.GPIO().PinCount(); n != 2 {
		t.Fatalf("PinCount() = %d, want 2", n)
	}
	for id, name := range map[int]string{PinLED1: "LED1", PinLED2: "LED2"} {
		if p := h.GPIO().Pin(id); p == nil || p.Name() != name {
			t.Fatalf("Pin(%d) = %v, want %s", id, p, name)
		}
	}
}
