// Package protocol defines the ModbusControl register conventions shared
// by the slave core and the master client.
//
// ModbusControl is layered on plain Modbus RTU. Only three function codes
// are used: READ_INPUT_REGISTERS for low-overhead status reads,
// WRITE_MULTIPLE_HOLDING_REGISTERS to submit a command, and
// READ_HOLDING_REGISTERS to poll for completion and fetch results.
package protocol

import "fmt"

// Version is the ModbusControl protocol version, encoded as major*10+minor.
// It is served at input register 0 and checked by the master on open.
const Version uint16 = 10

// Input register addresses. Address 0 is reserved for the protocol
// version; everything else is device-defined.
const (
	RegProtocol uint16 = 0 // protocol version constant
	RegFirmware uint16 = 1 // firmware version constant
	RegUptime   uint16 = 2 // uptime [ms], wraps every 65536 ms

	NumInputRegs uint16 = 3
)

// Command register (holding register 0) bit layout.
const (
	FlagPending uint16 = 0x8000 // set by master on submit, cleared by slave
	FlagError   uint16 = 0x4000 // set by slave when the command failed
	MaskCode    uint16 = 0x3FFF // command code / error code bits
)

// Command codes. Bit 15 is part of each literal so that writing the code
// to holding register 0 both selects the command and raises the pending
// flag in a single register write.
const (
	CmdSetPin         uint16 = 0x8001 // digitalWrite(pin, state)
	CmdGetPin         uint16 = 0x8002 // digitalRead(pin) with pullup
	CmdDelay          uint16 = 0x8003 // delay(ms), reception kept
	CmdDelayExclusive uint16 = 0x8004 // delay(ms), reception suspended
	CmdTest           uint16 = 0xBFFF // no-op pass-through
)

// Error codes stored in parameter register 0 (holding register 1) when
// the error flag is set. Negative values, stored as two's complement.
const (
	ErrIllegalCmd   int16 = -1 // command code not supported
	ErrIllegalParam int16 = -2 // parameter value out of range
)

// CmdError is a failed command as signaled in-band via the error flag.
type CmdError struct {
	Code int16
}

func (e *CmdError) Error() string {
	return "command failed: " + CodeName(e.Code)
}

// CodeWord returns the 16-bit two's complement pattern written to
// parameter register 0.
func (e *CmdError) CodeWord() uint16 {
	return uint16(e.Code)
}

// DecodeCode converts a parameter-register value back to a signed code.
func DecodeCode(w uint16) int16 {
	return int16(w)
}

// CodeName returns a human-readable name for an error code.
func CodeName(code int16) string {
	switch code {
	case ErrIllegalCmd:
		return "illegal command"
	case ErrIllegalParam:
		return "illegal parameter"
	default:
		return fmt.Sprintf("unknown error code %d", code)
	}
}

// CmdName returns a human-readable name for a command code.
func CmdName(code uint16) string {
	switch code {
	case CmdSetPin:
		return "set-pin"
	case CmdGetPin:
		return "get-pin"
	case CmdDelay:
		return "delay"
	case CmdDelayExclusive:
		return "delay-exclusive"
	case CmdTest:
		return "test"
	default:
		return fmt.Sprintf("cmd 0x%04X", code)
	}
}
