//go:build !linux

package pin

import "errors"

var errNoGpiod = errors.New("pin: gpiod driver requires linux")

// Gpiod is only available on Linux; this stub keeps callers compiling
// elsewhere.
type Gpiod struct{}

func NewGpiod(chipName string) (*Gpiod, error) {
	return nil, errNoGpiod
}

func (g *Gpiod) Close() error {
	return nil
}

func (g *Gpiod) Write(uint16, bool) error {
	return errNoGpiod
}

func (g *Gpiod) Read(uint16) (bool, error) {
	return false, errNoGpiod
}

func (g *Gpiod) ModeOutput(uint16) error {
	return errNoGpiod
}

func (g *Gpiod) ModeInputPullup(uint16) error {
	return errNoGpiod
}
