// Package command implements the ModbusControl command cycle: the
// dispatcher that watches the pending flag on holding register 0 and
// the handlers behind each command code.
package command

// Driver is the hardware collaborator behind the pin commands.
//
// ModeOutput must be called after Write: the level is latched first so
// the pin never drives a stale value when its direction flips.
type Driver interface {
	Write(pin uint16, high bool) error
	Read(pin uint16) (bool, error)
	ModeOutput(pin uint16) error
	ModeInputPullup(pin uint16) error
}

// Gate suspends inbound transport reception for exclusive waits.
// Suspend returns the resume func; resume drops anything received while
// suspended and must run on every exit path.
type Gate interface {
	Suspend() (resume func())
}
