// Package pin provides the hardware drivers behind the pin commands:
// a simulated driver for hosts without GPIO and a gpiod driver for
// Linux boards.
package pin

import "sync"

// Op is one recorded driver call.
type Op struct {
	Name string // "write", "read", "mode-output", "mode-input-pullup"
	Pin  uint16
	High bool // write level / read result
}

// Sim is an in-memory pin driver. Reads on pins nobody wrote return
// high, matching a pulled-up input with nothing attached. It records
// every call in order, which the daemon exposes for debugging and
// tests use to check call sequencing.
type Sim struct {
	mu     sync.Mutex
	levels map[uint16]bool
	ops    []Op
}

func NewSim() *Sim {
	return &Sim{levels: make(map[uint16]bool)}
}

func (s *Sim) Write(pin uint16, high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = high
	s.ops = append(s.ops, Op{Name: "write", Pin: pin, High: high})
	return nil
}

func (s *Sim) Read(pin uint16) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	high, seen := s.levels[pin]
	if !seen {
		high = true
	}
	s.ops = append(s.ops, Op{Name: "read", Pin: pin, High: high})
	return high, nil
}

func (s *Sim) ModeOutput(pin uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Name: "mode-output", Pin: pin})
	return nil
}

func (s *Sim) ModeInputPullup(pin uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, Op{Name: "mode-input-pullup", Pin: pin})
	return nil
}

// Ops returns a copy of the recorded call sequence.
func (s *Sim) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// SetLevel presets the level a future Read will sample.
func (s *Sim) SetLevel(pin uint16, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = high
}
