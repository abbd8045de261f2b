package command

import (
	"time"

	"github.com/ptrev/modbusctl/protocol"
)

func illegalParam() error {
	return &protocol.CmdError{Code: protocol.ErrIllegalParam}
}

// setPinHandler drives an output pin: params are (pin, state).
//
// Validation completes before any hardware action, and the level is
// written before the direction switches to output so the line never
// shows a transient wrong state.
func setPinHandler(drv Driver, allow []uint16) Handler {
	return func(ctx *Ctx) error {
		pin := ctx.Param(0)
		state := ctx.Param(1)
		if !contains(allow, pin) || state > 1 {
			return illegalParam()
		}
		if err := drv.Write(pin, state == 1); err != nil {
			return illegalParam()
		}
		if err := drv.ModeOutput(pin); err != nil {
			return illegalParam()
		}
		return nil
	}
}

// getPinHandler samples an input pin: param is (pin), the level lands
// in parameter register 1.
func getPinHandler(drv Driver, deny []uint16) Handler {
	return func(ctx *Ctx) error {
		pin := ctx.Param(0)
		if pin > uint16(protocol.MaskCode) || contains(deny, pin) {
			return illegalParam()
		}
		if err := drv.ModeInputPullup(pin); err != nil {
			return illegalParam()
		}
		high, err := drv.Read(pin)
		if err != nil {
			return illegalParam()
		}
		if high {
			ctx.SetParam(1, 1)
		} else {
			ctx.SetParam(1, 0)
		}
		return nil
	}
}

// delayHandler blocks the execution context for param0 milliseconds.
// With drop set the transport is suspended for the duration and bytes
// received meanwhile are discarded on resume; otherwise they stay
// buffered and are parsed on the next poll.
func delayHandler(gate Gate, drop bool) Handler {
	return func(ctx *Ctx) error {
		ms := ctx.Param(0)
		if drop {
			resume := gate.Suspend()
			defer resume()
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return nil
	}
}

// testHandler is the wire-level self test: succeed and touch nothing.
func testHandler(*Ctx) error {
	return nil
}

func contains(set []uint16, v uint16) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}
