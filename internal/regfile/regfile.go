// Package regfile owns the slave register file: the holding register
// block shared with the master and the read-only virtual input space.
package regfile

import (
	"fmt"
)

// Modbus keeps register payloads within one frame.
const (
	MinHolding = 2
	MaxHolding = 125
)

// Policy selects how holding register addresses are validated.
type Policy int

const (
	// WholeBlock requires holding reads and writes to start at address 0
	// and span at most the full block. This is the canonical
	// ModbusControl behavior ("write/read must start at address 0").
	WholeBlock Policy = iota

	// SubRange permits any contiguous range inside the block.
	SubRange
)

// AccessKind labels the register space an AddrError refers to.
type AccessKind int

const (
	HoldingRead AccessKind = iota
	HoldingWrite
	InputRead
)

func (k AccessKind) String() string {
	switch k {
	case HoldingRead:
		return "holding read"
	case HoldingWrite:
		return "holding write"
	case InputRead:
		return "input read"
	default:
		return fmt.Sprintf("access %d", int(k))
	}
}

// AddrError reports a register access outside valid bounds. The
// transport maps it to the Modbus illegal-data-address exception.
type AddrError struct {
	Kind AccessKind
	Addr uint16
	Qty  uint16
	Size uint16
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("regfile: %s [%d,%d) outside %d registers",
		e.Kind, e.Addr, int(e.Addr)+int(e.Qty), e.Size)
}

// InputSource computes virtual input register values on demand.
type InputSource interface {
	NumInput() uint16
	Input(addr uint16) uint16
}

// Bank is the register file. It is created once at startup and mutated
// only from the single poll/dispatch context, so it carries no locks.
type Bank struct {
	policy Policy
	hold   []uint16
	src    InputSource
}

// New creates a zero-initialized Bank with n holding registers.
func New(n int, policy Policy, src InputSource) (*Bank, error) {
	if n < MinHolding || n > MaxHolding {
		return nil, fmt.Errorf("regfile: holding register count %d outside [%d,%d]",
			n, MinHolding, MaxHolding)
	}
	if src == nil {
		return nil, fmt.Errorf("regfile: input source required")
	}
	return &Bank{
		policy: policy,
		hold:   make([]uint16, n),
		src:    src,
	}, nil
}

// Size returns the holding register count.
func (b *Bank) Size() int {
	return len(b.hold)
}

// ReadHolding returns a copy of holding registers [addr, addr+qty).
func (b *Bank) ReadHolding(addr, qty uint16) ([]uint16, error) {
	if err := b.checkHolding(HoldingRead, addr, qty); err != nil {
		return nil, err
	}
	out := make([]uint16, qty)
	copy(out, b.hold[addr:int(addr)+int(qty)])
	return out, nil
}

// WriteHolding applies values at [addr, addr+len(values)). Validation
// happens before any register is touched; a failed write mutates
// nothing.
func (b *Bank) WriteHolding(addr uint16, values []uint16) error {
	if err := b.checkHolding(HoldingWrite, addr, uint16(len(values))); err != nil {
		return err
	}
	copy(b.hold[addr:], values)
	return nil
}

// ReadInput returns input registers [addr, addr+qty). Input reads always
// accept sub-ranges; the space is small and read-only by construction
// (there is no input write path).
func (b *Bank) ReadInput(addr, qty uint16) ([]uint16, error) {
	n := b.src.NumInput()
	if qty == 0 || int(addr)+int(qty) > int(n) {
		return nil, &AddrError{Kind: InputRead, Addr: addr, Qty: qty, Size: n}
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = b.src.Input(addr + uint16(i))
	}
	return out, nil
}

// Holding reads one register without policy checks. The index must be
// valid; this is for the dispatcher, not the wire.
func (b *Bank) Holding(i int) uint16 {
	if i < 0 || i >= len(b.hold) {
		panic(fmt.Sprintf("regfile: invalid holding index %d", i))
	}
	return b.hold[i]
}

// SetHolding writes one register without policy checks.
func (b *Bank) SetHolding(i int, v uint16) {
	if i < 0 || i >= len(b.hold) {
		panic(fmt.Sprintf("regfile: invalid holding index %d", i))
	}
	b.hold[i] = v
}

func (b *Bank) checkHolding(kind AccessKind, addr, qty uint16) error {
	size := uint16(len(b.hold))
	bad := qty == 0 || int(addr)+int(qty) > int(size)
	if b.policy == WholeBlock && addr != 0 {
		bad = true
	}
	if bad {
		return &AddrError{Kind: kind, Addr: addr, Qty: qty, Size: size}
	}
	return nil
}
