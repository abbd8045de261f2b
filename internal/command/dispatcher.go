package command

import (
	"errors"
	"fmt"

	"github.com/ptrev/modbusctl/internal/logging"
	"github.com/ptrev/modbusctl/internal/regfile"
	"github.com/ptrev/modbusctl/protocol"
)

// Handler executes one command against the parameter registers. A nil
// return means success; a *protocol.CmdError is reported in-band to the
// master. Anything else is a programming error and maps to IllegalCmd.
type Handler func(ctx *Ctx) error

// Ctx gives a handler access to the parameter registers of the current
// command. Parameter register i is holding register i+1.
type Ctx struct {
	d *Dispatcher
}

// Param returns parameter register i.
func (c *Ctx) Param(i int) uint16 {
	return c.d.bank.Holding(i + 1)
}

// SetParam writes a result into parameter register i.
func (c *Ctx) SetParam(i int, v uint16) {
	c.d.bank.SetHolding(i+1, v)
}

// NumParams returns how many parameter registers exist.
func (c *Ctx) NumParams() int {
	return c.d.bank.Size() - 1
}

// Config carries the policy knobs the handlers need.
type Config struct {
	// OutputAllow is the whitelist of pins SetPin may drive.
	OutputAllow []uint16
	// InputDeny is the blacklist of pins GetPin must not touch.
	InputDeny []uint16
	// DelayDrops makes the plain Delay command drop inbound bytes
	// received during the wait instead of leaving them buffered.
	DelayDrops bool
}

// Dispatcher runs the Idle/Pending state machine. It must only be
// polled from the single execution context that also polls the
// transport; ordering, not locking, is what keeps the register file
// consistent.
type Dispatcher struct {
	bank     *regfile.Bank
	handlers map[uint16]Handler
	log      logging.Logger
}

// New builds a Dispatcher with the five built-in commands registered.
func New(
	bank *regfile.Bank,
	drv Driver,
	gate Gate,
	cfg Config,
	log logging.Logger,
) *Dispatcher {
	if log == nil {
		log = logging.Nop{}
	}
	d := &Dispatcher{
		bank:     bank,
		handlers: make(map[uint16]Handler),
		log:      log,
	}
	d.register(protocol.CmdSetPin, setPinHandler(drv, cfg.OutputAllow))
	d.register(protocol.CmdGetPin, getPinHandler(drv, cfg.InputDeny))
	d.register(protocol.CmdDelay, delayHandler(gate, cfg.DelayDrops))
	d.register(protocol.CmdDelayExclusive, delayHandler(gate, true))
	d.register(protocol.CmdTest, testHandler)
	return d
}

func (d *Dispatcher) register(code uint16, h Handler) {
	key := code & protocol.MaskCode
	if _, dup := d.handlers[key]; dup {
		panic(fmt.Sprintf("command: duplicate handler for code 0x%04X", code))
	}
	d.handlers[key] = h
}

// Poll runs one check-and-dispatch pass. It returns false when no
// command was pending. When one was, the full cycle - decode, handle,
// write back, clear the pending flag - completes before Poll returns,
// on the success path and on every failure path alike.
func (d *Dispatcher) Poll() bool {
	cmd := d.bank.Holding(0)
	if cmd&protocol.FlagPending == 0 {
		return false
	}

	h, known := d.handlers[cmd&protocol.MaskCode]
	if !known {
		d.log.Infof("command: unknown code 0x%04X", cmd)
		d.fail(cmd, &protocol.CmdError{Code: protocol.ErrIllegalCmd})
		return true
	}

	d.log.Debugf("command: dispatch %s", protocol.CmdName(cmd))
	if err := h(&Ctx{d: d}); err != nil {
		var cerr *protocol.CmdError
		if !errors.As(err, &cerr) {
			// Handlers have no other way to fail; treat it as if the
			// command did not exist rather than wedging the cycle.
			d.log.Errorf("command: %s: %v", protocol.CmdName(cmd), err)
			cerr = &protocol.CmdError{Code: protocol.ErrIllegalCmd}
		} else {
			d.log.Infof("command: %s: %v", protocol.CmdName(cmd), cerr)
		}
		d.fail(cmd, cerr)
		return true
	}

	d.bank.SetHolding(0, cmd&^(protocol.FlagPending|protocol.FlagError))
	return true
}

// fail clears pending, raises the error flag and stores the code in
// parameter register 0. Other parameter registers are left untouched.
func (d *Dispatcher) fail(cmd uint16, cerr *protocol.CmdError) {
	d.bank.SetHolding(1, cerr.CodeWord())
	d.bank.SetHolding(0, (cmd&^protocol.FlagPending)|protocol.FlagError)
}
