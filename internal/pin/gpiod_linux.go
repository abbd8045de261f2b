package pin

import (
	"fmt"

	"github.com/warthog618/gpiod"
)

// Gpiod drives real pins through the Linux GPIO character device.
//
// Write only latches the level; it is applied on the wire when
// ModeOutput requests the line, so a pin never drives a default value
// between the level write and the direction switch.
type Gpiod struct {
	chip   *gpiod.Chip
	lines  map[uint16]*gpiod.Line
	levels map[uint16]int
}

func NewGpiod(chipName string) (*Gpiod, error) {
	chip, err := gpiod.NewChip(chipName, gpiod.WithConsumer("modbusctld"))
	if err != nil {
		return nil, fmt.Errorf("pin: open %s: %w", chipName, err)
	}
	return &Gpiod{
		chip:   chip,
		lines:  make(map[uint16]*gpiod.Line),
		levels: make(map[uint16]int),
	}, nil
}

func (g *Gpiod) Close() error {
	for _, l := range g.lines {
		l.Close()
	}
	return g.chip.Close()
}

func (g *Gpiod) Write(pin uint16, high bool) error {
	v := 0
	if high {
		v = 1
	}
	g.levels[pin] = v
	if l, ok := g.lines[pin]; ok {
		return l.SetValue(v)
	}
	return nil
}

func (g *Gpiod) Read(pin uint16) (bool, error) {
	l, ok := g.lines[pin]
	if !ok {
		return false, fmt.Errorf("pin: %d not requested", pin)
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (g *Gpiod) ModeOutput(pin uint16) error {
	g.release(pin)
	l, err := g.chip.RequestLine(int(pin), gpiod.AsOutput(g.levels[pin]))
	if err != nil {
		return fmt.Errorf("pin: request output %d: %w", pin, err)
	}
	g.lines[pin] = l
	return nil
}

func (g *Gpiod) ModeInputPullup(pin uint16) error {
	g.release(pin)
	l, err := g.chip.RequestLine(int(pin), gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		return fmt.Errorf("pin: request input %d: %w", pin, err)
	}
	g.lines[pin] = l
	return nil
}

func (g *Gpiod) release(pin uint16) {
	if l, ok := g.lines[pin]; ok {
		l.Close()
		delete(g.lines, pin)
	}
}
