// Package master controls a ModbusControl slave over Modbus RTU.
//
// Static values are read straight from input registers; commands are
// triggered by writing [code, params...] to holding register 0 and
// polling the command register until the slave clears the pending flag.
package master

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/ptrev/modbusctl/protocol"
)

// Connection defaults.
const (
	DEFAULT_BAUD        = 115200
	DEFAULT_TIMEOUT     = 100 * time.Millisecond
	DEFAULT_CMD_TIMEOUT = 200 * time.Millisecond
)

// ErrTimeout is returned when a command does not complete within the
// command timeout. The slave enforces no timeout of its own; retry
// policy belongs to the master.
var ErrTimeout = errors.New("master: command completion timeout")

// VersionError reports a protocol version mismatch at connection open.
type VersionError struct {
	Want uint16
	Got  uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("master: protocol version mismatch: slave %d.%d, want %d.%d",
		e.Got/10, e.Got%10, e.Want/10, e.Want%10)
}

// Config describes the serial link to the slave.
type Config struct {
	Device  string
	Baud    int
	UnitID  byte
	Timeout time.Duration // per-request Modbus receive timeout

	// CmdTimeout bounds the write/poll/read cycle of one command.
	CmdTimeout time.Duration

	// BootWait is slept after opening the port, for slaves that sit in
	// a bootloader right after the port asserts DTR.
	BootWait time.Duration
}

// wire is the Modbus client surface the master actually uses.
// goburrow's modbus.Client satisfies it.
type wire interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Client is a connected ModbusControl master.
type Client struct {
	cfg  Config
	wire wire

	setTimeout func(time.Duration)
	close      func() error
}

// Open connects to the slave and verifies the protocol version against
// input register 0. A mismatch closes the port and returns
// *VersionError.
func Open(cfg Config) (*Client, error) {
	if cfg.Device == "" {
		return nil, errors.New("master: device required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = DEFAULT_BAUD
	}
	if cfg.UnitID == 0 {
		cfg.UnitID = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DEFAULT_TIMEOUT
	}
	if cfg.CmdTimeout <= 0 {
		cfg.CmdTimeout = DEFAULT_CMD_TIMEOUT
	}

	handler := modbus.NewRTUClientHandler(cfg.Device)
	handler.BaudRate = cfg.Baud
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = cfg.UnitID
	handler.Timeout = cfg.Timeout

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("master: open %s: %w", cfg.Device, err)
	}

	c := &Client{
		cfg:        cfg,
		wire:       modbus.NewClient(handler),
		setTimeout: func(d time.Duration) { handler.Timeout = d },
		close:      handler.Close,
	}

	if cfg.BootWait > 0 {
		time.Sleep(cfg.BootWait)
	}

	if err := c.checkProtocolVersion(); err != nil {
		handler.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the serial port.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func (c *Client) checkProtocolVersion() error {
	v, err := c.readInput(protocol.RegProtocol)
	if err != nil {
		return err
	}
	if v != protocol.Version {
		return &VersionError{Want: protocol.Version, Got: v}
	}
	return nil
}

// ---- input register reads ----

// ProtocolVersion reads the slave's protocol version constant.
func (c *Client) ProtocolVersion() (uint16, error) {
	return c.readInput(protocol.RegProtocol)
}

// FirmwareVersion reads the slave firmware version as major/minor.
func (c *Client) FirmwareVersion() (major, minor uint8, err error) {
	v, err := c.readInput(protocol.RegFirmware)
	if err != nil {
		return 0, 0, err
	}
	return uint8(v / 10), uint8(v % 10), nil
}

// Uptime reads the slave uptime. The value wraps every 65536 ms on the
// slave side; the caller sees at most that much.
func (c *Client) Uptime() (time.Duration, error) {
	v, err := c.readInput(protocol.RegUptime)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}

func (c *Client) readInput(addr uint16) (uint16, error) {
	raw, err := c.wire.ReadInputRegisters(addr, 1)
	if err != nil {
		return 0, fmt.Errorf("master: read input %d: %w", addr, err)
	}
	regs := bytesToRegs(raw)
	if len(regs) != 1 {
		return 0, fmt.Errorf("master: read input %d: short reply", addr)
	}
	return regs[0], nil
}

// ---- command execution ----

// ExecOption tunes one Execute call.
type ExecOption func(*execOpts)

type execOpts struct {
	timeout time.Duration
}

// WithTimeout raises the Modbus receive timeout and the completion
// budget for one command, e.g. a long delay. The configured timeout is
// restored afterwards.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *execOpts) {
		o.timeout = d
	}
}

// Execute triggers one command: write [code, params...] at holding
// address 0, poll until the pending flag clears, then return numOut
// result registers starting at parameter register 0. A slave-side
// failure comes back as *protocol.CmdError.
func (c *Client) Execute(code uint16, params []uint16, numOut int, opts ...ExecOption) ([]uint16, error) {
	o := execOpts{timeout: c.cfg.CmdTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout != c.cfg.CmdTimeout && c.setTimeout != nil {
		c.setTimeout(o.timeout)
		defer c.setTimeout(c.cfg.Timeout)
	}

	tx := append([]uint16{code}, params...)
	if _, err := c.wire.WriteMultipleRegisters(0, uint16(len(tx)), regsToBytes(tx)); err != nil {
		return nil, fmt.Errorf("master: %s: write: %w", protocol.CmdName(code), err)
	}

	// Read back at least the command register and parameter register 0,
	// which carries the error code on failure.
	qty := uint16(1 + numOut)
	if qty < 2 {
		qty = 2
	}

	deadline := time.Now().Add(o.timeout)
	for {
		raw, err := c.wire.ReadHoldingRegisters(0, qty)
		if err != nil {
			return nil, fmt.Errorf("master: %s: poll: %w", protocol.CmdName(code), err)
		}
		regs := bytesToRegs(raw)
		if len(regs) < int(qty) {
			return nil, fmt.Errorf("master: %s: short reply", protocol.CmdName(code))
		}

		if regs[0]&protocol.FlagPending == 0 {
			if regs[0]&protocol.FlagError != 0 {
				return nil, &protocol.CmdError{Code: protocol.DecodeCode(regs[1])}
			}
			return regs[1 : 1+numOut], nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
}

// ---- high-level commands ----

// SetPin drives an output pin, like digitalWrite(pin, state).
func (c *Client) SetPin(pin uint16, high bool) error {
	state := uint16(0)
	if high {
		state = 1
	}
	_, err := c.Execute(protocol.CmdSetPin, []uint16{pin, state}, 0)
	return err
}

// ReadPin samples an input pin with pullup, like digitalRead(pin).
func (c *Client) ReadPin(pin uint16) (bool, error) {
	out, err := c.Execute(protocol.CmdGetPin, []uint16{pin}, 2)
	if err != nil {
		return false, err
	}
	return out[1] == 1, nil
}

// Delay blocks the slave for d, with reception kept alive.
func (c *Client) Delay(d time.Duration) error {
	ms := uint16(d.Milliseconds())
	_, err := c.Execute(protocol.CmdDelay, []uint16{ms}, 0,
		WithTimeout(d+c.cfg.CmdTimeout))
	return err
}

// DelayExclusive blocks the slave for d with reception suspended;
// anything sent during the wait is dropped by the slave.
func (c *Client) DelayExclusive(d time.Duration) error {
	ms := uint16(d.Milliseconds())
	_, err := c.Execute(protocol.CmdDelayExclusive, []uint16{ms}, 0,
		WithTimeout(d+c.cfg.CmdTimeout))
	return err
}

// Test runs the no-op test command and returns the echoed parameters.
func (c *Client) Test(params ...uint16) ([]uint16, error) {
	return c.Execute(protocol.CmdTest, params, len(params))
}

// ---- register <-> byte helpers ----

func bytesToRegs(raw []byte) []uint16 {
	out := make([]uint16, len(raw)/2)
	for i := range out {
		out[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return out
}

func regsToBytes(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
