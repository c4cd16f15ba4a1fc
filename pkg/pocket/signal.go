package pocket

import (
	"errors"

	"github.com/google/uuid"
)

// Handler is a slot connected to a Signal. A non-nil return value is
// propagated out of Emit, so a persistence handler can surface write
// failures to the mutating call that triggered it.
type Handler func() error

// Signal is a minimal signal/slot implementation used for change
// notification. Handlers are invoked in connection order. Signals are
// not safe for concurrent use; callers serialize access externally,
// matching the rest of the package.
type Signal struct {
	order    []uuid.UUID
	handlers map[uuid.UUID]Handler
}

// NewSignal creates an empty signal.
func NewSignal() *Signal {
	return &Signal{handlers: make(map[uuid.UUID]Handler)}
}

// Connect registers a handler and returns a handle for Disconnect.
func (s *Signal) Connect(h Handler) uuid.UUID {
	id := connectionID()
	s.order = append(s.order, id)
	s.handlers[id] = h
	return id
}

// Disconnect removes the handler with the given handle. Unknown
// handles are ignored.
func (s *Signal) Disconnect(id uuid.UUID) {
	if _, ok := s.handlers[id]; !ok {
		return
	}
	delete(s.handlers, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// DisconnectAll removes every connected handler.
func (s *Signal) DisconnectAll() {
	s.order = nil
	s.handlers = make(map[uuid.UUID]Handler)
}

// Emit invokes all connected handlers in connection order. Every
// handler runs even when an earlier one fails; the errors are joined.
func (s *Signal) Emit() error {
	var errs []error
	for _, id := range s.order {
		h, ok := s.handlers[id]
		if !ok {
			continue
		}
		if err := h(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// connectionID generates a UUID v7 handle for a signal connection.
func connectionID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New()
	}
	return id
}
