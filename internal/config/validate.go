// internal/config/validate.go
package config

import (
	"fmt"
)

// Command codes occupy 14 bits, so pin numbers passed as parameters can
// never exceed this.
const maxPin = 0x3FFF

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	s := &cfg.Slave

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if s.Serial.Device == "" {
		return fmt.Errorf("slave: serial device required")
	}
	switch s.Serial.Parity {
	case "", "none", "even", "odd":
	default:
		return fmt.Errorf("slave: parity %q not one of none/even/odd", s.Serial.Parity)
	}
	if s.Serial.Baud < 0 {
		return fmt.Errorf("slave: baud %d must be positive", s.Serial.Baud)
	}
	if s.Serial.TimeoutMs < 0 {
		return fmt.Errorf("slave: timeout_ms %d must be positive", s.Serial.TimeoutMs)
	}

	// ------------------------------------------------------------
	// PROTOCOL GEOMETRY
	// ------------------------------------------------------------

	if s.UnitID < 1 || s.UnitID > 247 {
		return fmt.Errorf("slave: unit_id %d outside [1,247]", s.UnitID)
	}
	if s.HoldingRegs != 0 && (s.HoldingRegs < 2 || s.HoldingRegs > 125) {
		return fmt.Errorf("slave: holding_regs %d outside [2,125]", s.HoldingRegs)
	}
	switch s.Addressing {
	case "", "whole_block", "sub_range":
	default:
		return fmt.Errorf("slave: addressing %q not one of whole_block/sub_range", s.Addressing)
	}
	switch s.DelayPolicy {
	case "", "buffer", "drop":
	default:
		return fmt.Errorf("slave: delay_policy %q not one of buffer/drop", s.DelayPolicy)
	}

	// ------------------------------------------------------------
	// PINS
	// ------------------------------------------------------------

	switch s.Pins.Driver {
	case "", "sim", "gpiod":
	default:
		return fmt.Errorf("slave: pin driver %q not one of sim/gpiod", s.Pins.Driver)
	}
	if s.Pins.Driver == "gpiod" && s.Pins.GpioChip == "" {
		return fmt.Errorf("slave: gpio_chip required for the gpiod driver")
	}
	for _, p := range s.Pins.OutputAllow {
		if p > maxPin {
			return fmt.Errorf("slave: output_allow pin %d exceeds %d", p, maxPin)
		}
	}
	for _, p := range s.Pins.InputDeny {
		if p > maxPin {
			return fmt.Errorf("slave: input_deny pin %d exceeds %d", p, maxPin)
		}
	}

	return nil
}
