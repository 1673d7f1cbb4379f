package hal

import (
	"fmt"
	"io"
	"sync"
)

// streamSerial is a Serial backed by an io.Writer. Each Write reaches the
// writer as one call; callers still interleave between calls.
type streamSerial struct {
	mu   sync.Mutex
	w    io.Writer
	baud uint32
}

// NewStreamSerial returns a Serial writing to w.
func NewStreamSerial(w io.Writer) Serial {
	return &streamSerial{w: w}
}

func (s *streamSerial) Configure(cfg SerialConfig) error {
	if cfg.BaudRate == 0 {
		return fmt.Errorf("serial: configure: baud rate 0: %w", ErrNotConfigured)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baud = cfg.BaudRate
	return nil
}

func (s *streamSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	if s.baud == 0 {
		return 0, ErrNotConfigured
	}
	return s.w.Write(p)
}
