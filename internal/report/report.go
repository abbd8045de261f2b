// Package report serves the virtual input registers: protocol version,
// firmware version and uptime.
package report

import (
	"time"

	"github.com/bangzek/clock"

	"github.com/ptrev/modbusctl/protocol"
)

var ctime = clock.New()

// Reporter implements regfile.InputSource. The uptime register is
// sampled at read time and truncated to 16 bits, so it wraps every
// 65536 ms; masters are expected to know this.
type Reporter struct {
	Firmware uint16 // firmware version, major*10+minor

	start time.Time
}

// New creates a Reporter whose uptime counts from now.
func New(firmware uint16) *Reporter {
	return &Reporter{
		Firmware: firmware,
		start:    ctime.Now(),
	}
}

func (r *Reporter) NumInput() uint16 {
	return protocol.NumInputRegs
}

func (r *Reporter) Input(addr uint16) uint16 {
	switch addr {
	case protocol.RegProtocol:
		return protocol.Version
	case protocol.RegFirmware:
		return r.Firmware
	case protocol.RegUptime:
		return uint16(ctime.Now().Sub(r.start).Milliseconds())
	default:
		// Unreachable through the Bank, which bounds-checks first.
		return 0
	}
}
