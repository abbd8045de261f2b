// Package transport is the Modbus RTU slave transport: it owns the
// serial port, parses one inbound frame per poll, and routes the three
// supported function codes to the register backend.
//
// Framing, addressing and checksum live entirely here; the command core
// above never sees a byte of the wire.
package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/ptrev/modbusctl/internal/logging"
	"github.com/ptrev/modbusctl/internal/regfile"
)

// Supported Modbus function codes.
const (
	fcReadHolding  = 3
	fcReadInput    = 4
	fcWriteHolding = 16
)

// Modbus exception codes.
const (
	excIllegalFunction = 1
	excIllegalAddress  = 2
	excIllegalValue    = 3
)

// Port is the serial device the transport reads and writes. The read
// side must honor a short read timeout so Poll stays a bounded,
// non-blocking pass: a Read returning (0, nil) means "no bytes yet".
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Backend receives the decoded register accesses. A *regfile.AddrError
// answers the master with the illegal-data-address exception.
type Backend interface {
	ReadHolding(addr, qty uint16) ([]uint16, error)
	WriteHolding(addr uint16, values []uint16) error
	ReadInput(addr, qty uint16) ([]uint16, error)
}

// Transport is a single-unit RTU slave. It must only be used from one
// goroutine; the poll loop provides all the ordering the register file
// needs.
type Transport struct {
	port    Port
	unit    byte
	backend Backend
	log     logging.Logger

	buf       []byte
	suspended bool
}

// New wires a slave transport for one unit id (1..247).
func New(port Port, unit byte, backend Backend, log logging.Logger) (*Transport, error) {
	if unit < 1 || unit > 247 {
		return nil, fmt.Errorf("transport: unit id %d outside [1,247]", unit)
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Transport{
		port:    port,
		unit:    unit,
		backend: backend,
		log:     log,
		buf:     make([]byte, 0, 256),
	}, nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	return t.port.Close()
}

// Suspend stops reception for an exclusive wait. The returned resume
// func reopens the transport and discards everything received while
// suspended; callers must run it on every exit path.
func (t *Transport) Suspend() (resume func()) {
	t.suspended = true
	return func() {
		if err := t.port.ResetInputBuffer(); err != nil {
			t.log.Errorf("transport: reset input buffer: %v", err)
		}
		t.buf = t.buf[:0]
		t.suspended = false
	}
}

// Suspended reports whether reception is currently suspended.
func (t *Transport) Suspended() bool {
	return t.suspended
}

// Poll runs one reception pass: drain whatever the port has buffered,
// and if that amounts to a complete frame for this unit, dispatch it
// and send the response. Frames for other units, runts and CRC
// failures are dropped without a response; the master's timeout is the
// error signal, as Modbus wants it.
//
// Only I/O failures are returned; protocol-level trouble never is.
func (t *Transport) Poll() error {
	if t.suspended {
		return nil
	}

	n, err := t.drain()
	if err != nil {
		return err
	}
	if n == 0 && len(t.buf) == 0 {
		return nil
	}

	frame := t.buf
	t.buf = t.buf[:0]

	if len(frame) < 4 {
		t.log.Debugf("transport: runt frame % X", frame)
		return nil
	}
	if frame[0] != t.unit {
		t.log.Debugf("transport: frame for unit %d ignored", frame[0])
		return nil
	}
	if !checksum(frame) {
		t.log.Debugf("transport: bad crc % X", frame)
		return nil
	}

	return t.dispatch(frame[1 : len(frame)-2])
}

// drain reads until the port signals an inter-frame gap (a timed-out
// read returning zero bytes). The quiet gap is the frame boundary.
func (t *Transport) drain() (int, error) {
	var chunk [64]byte
	total := 0
	for {
		n, err := t.port.Read(chunk[:])
		if n > 0 {
			t.buf = append(t.buf, chunk[:n]...)
			total += n
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

// dispatch handles one CRC-verified PDU (function code + data).
func (t *Transport) dispatch(pdu []byte) error {
	fc := pdu[0]
	data := pdu[1:]

	switch fc {
	case fcReadHolding:
		return t.handleRead(fc, data, t.backend.ReadHolding)
	case fcReadInput:
		return t.handleRead(fc, data, t.backend.ReadInput)
	case fcWriteHolding:
		return t.handleWrite(data)
	default:
		t.log.Infof("transport: illegal function %d", fc)
		return t.sendException(fc, excIllegalFunction)
	}
}

func (t *Transport) handleRead(
	fc byte,
	data []byte,
	read func(addr, qty uint16) ([]uint16, error),
) error {
	if len(data) != 4 {
		return t.sendException(fc, excIllegalValue)
	}
	addr := be16(data[0:])
	qty := be16(data[2:])
	if qty < 1 || qty > 125 {
		return t.sendException(fc, excIllegalValue)
	}

	regs, err := read(addr, qty)
	if err != nil {
		return t.sendError(fc, err)
	}

	resp := make([]byte, 3+2*len(regs)+2)
	resp[0] = t.unit
	resp[1] = fc
	resp[2] = byte(2 * len(regs))
	for i, r := range regs {
		resp[3+2*i] = byte(r >> 8)
		resp[4+2*i] = byte(r)
	}
	return t.send(resp)
}

func (t *Transport) handleWrite(data []byte) error {
	if len(data) < 5 {
		return t.sendException(fcWriteHolding, excIllegalValue)
	}
	addr := be16(data[0:])
	qty := be16(data[2:])
	count := int(data[4])
	if qty < 1 || qty > 123 || count != 2*int(qty) || len(data) != 5+count {
		return t.sendException(fcWriteHolding, excIllegalValue)
	}

	values := make([]uint16, qty)
	for i := range values {
		values[i] = be16(data[5+2*i:])
	}
	if err := t.backend.WriteHolding(addr, values); err != nil {
		return t.sendError(fcWriteHolding, err)
	}

	// Echo address and quantity back.
	resp := make([]byte, 8)
	resp[0] = t.unit
	resp[1] = fcWriteHolding
	copy(resp[2:6], data[0:4])
	return t.send(resp)
}

func (t *Transport) sendError(fc byte, err error) error {
	var aerr *regfile.AddrError
	if errors.As(err, &aerr) {
		t.log.Infof("transport: %v", aerr)
		return t.sendException(fc, excIllegalAddress)
	}
	t.log.Errorf("transport: fc %d: %v", fc, err)
	return t.sendException(fc, excIllegalAddress)
}

func (t *Transport) sendException(fc, code byte) error {
	return t.send([]byte{t.unit, fc | 0x80, code, 0, 0})
}

func (t *Transport) send(frame []byte) error {
	SetChecksum(frame)
	t.log.Debugf("transport: tx % X", frame)
	n, err := t.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
