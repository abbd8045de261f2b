// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultBaud        = 115200
	DefaultTimeoutMs   = 30
	DefaultHoldingRegs = 8
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Slave

	if s.Serial.Baud == 0 {
		s.Serial.Baud = DefaultBaud
	}
	if s.Serial.Parity == "" {
		s.Serial.Parity = "none"
	}
	if s.Serial.TimeoutMs == 0 {
		s.Serial.TimeoutMs = DefaultTimeoutMs
	}
	if s.HoldingRegs == 0 {
		s.HoldingRegs = DefaultHoldingRegs
	}
	if s.Addressing == "" {
		s.Addressing = "whole_block"
	}
	if s.DelayPolicy == "" {
		s.DelayPolicy = "buffer"
	}
	if s.Pins.Driver == "" {
		s.Pins.Driver = "sim"
	}
}
