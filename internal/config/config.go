// internal/config/config.go
package config

// Config is the daemon configuration.
type Config struct {
	Slave SlaveConfig `yaml:"slave"`
}

// ---- SLAVE ----

type SlaveConfig struct {
	Serial SerialConfig `yaml:"serial"`
	UnitID uint8        `yaml:"unit_id"`

	// HoldingRegs is the size of the register block shared with the
	// master; register 0 is the command register.
	HoldingRegs int `yaml:"holding_regs"`

	// Addressing selects "whole_block" (canonical: holding access must
	// start at address 0) or "sub_range".
	Addressing string `yaml:"addressing"`

	// DelayPolicy selects what a plain delay command does with bytes
	// received during the wait: "buffer" or "drop".
	DelayPolicy string `yaml:"delay_policy"`

	// FirmwareVersion is served at input register 1 (major*10+minor).
	FirmwareVersion uint16 `yaml:"firmware_version"`

	Pins PinConfig `yaml:"pins"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device    string `yaml:"device"`
	Baud      int    `yaml:"baud"`
	Parity    string `yaml:"parity"` // none | even | odd
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- PINS ----

type PinConfig struct {
	Driver   string `yaml:"driver"`    // sim | gpiod
	GpioChip string `yaml:"gpio_chip"` // gpiod only

	// OutputAllow is the whitelist of pins set-pin may drive.
	OutputAllow []uint16 `yaml:"output_allow"`

	// InputDeny is the blacklist of pins get-pin must not touch.
	InputDeny []uint16 `yaml:"input_deny"`
}
