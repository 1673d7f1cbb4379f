package hal

import (
	"bytes"
	"errors"
	"testing"
)

func TestStreamSerialRequiresConfigure(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSerial(&buf)

	if _, err := s.Write([]byte("early")); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Write before Configure = %v, want %v", err, ErrNotConfigured)
	}
	if err := s.Configure(SerialConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Configure(0 baud) = %v, want %v", err, ErrNotConfigured)
	}
	if err := s.Configure(SerialConfig{BaudRate: 115200}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := s.Write([]byte("ok\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "ok\n" {
		t.Fatalf("output = %q, want %q", got, "ok\n")
	}
}

func TestStreamSerialNilWriter(t *testing.T) {
	s := NewStreamSerial(nil)
	if err := s.Configure(SerialConfig{BaudRate: 9600}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := s.Write([]byte("x")); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("Write = %v, want %v", err, ErrNotImplemented)
	}
}
