package pocket

import (
	"errors"
	"testing"
)

func TestSignalEmitOrder(t *testing.T) {
	s := NewSignal()
	var calls []string

	s.Connect(func() error {
		calls = append(calls, "first")
		return nil
	})
	s.Connect(func() error {
		calls = append(calls, "second")
		return nil
	})

	if err := s.Emit(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestSignalDisconnect(t *testing.T) {
	s := NewSignal()
	n := 0

	id := s.Connect(func() error {
		n++
		return nil
	})
	if err := s.Emit(); err != nil {
		t.Fatal(err)
	}

	s.Disconnect(id)
	if err := s.Emit(); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("disconnected handler still called, n=%d", n)
	}

	// Unknown handles are ignored.
	s.Disconnect(id)
}

func TestSignalEmitCollectsErrors(t *testing.T) {
	s := NewSignal()
	errBoom := errors.New("boom")
	ran := false

	s.Connect(func() error { return errBoom })
	s.Connect(func() error {
		ran = true
		return nil
	})

	err := s.Emit()
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if !ran {
		t.Fatal("later handler skipped after earlier failure")
	}
}

func TestSignalDisconnectAll(t *testing.T) {
	s := NewSignal()
	n := 0
	s.Connect(func() error { n++; return nil })
	s.Connect(func() error { n++; return nil })

	s.DisconnectAll()
	if err := s.Emit(); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("handlers called after DisconnectAll, n=%d", n)
	}
}
