package transport

import (
	"fmt"
	"time"

	"github.com/albenik/go-serial/v2"
)

const (
	SERIAL_TIMEOUT = 30 * time.Millisecond
	BAUDRATE       = 115200
)

// OpenErr wraps a serial open failure with the device name.
type OpenErr struct {
	Dev string
	Err error
}

func (e OpenErr) Error() string {
	return e.Err.Error() + " while opening " + e.Dev
}

func (e OpenErr) Unwrap() error {
	return e.Err
}

// ParseParity maps a config parity name to the serial layer's value.
func ParseParity(s string) (serial.Parity, error) {
	switch s {
	case "", "none":
		return serial.NoParity, nil
	case "even":
		return serial.EvenParity, nil
	case "odd":
		return serial.OddParity, nil
	default:
		return serial.NoParity, fmt.Errorf("transport: invalid parity %q", s)
	}
}

// SerialPort opens the slave's serial device. The read timeout doubles
// as the inter-frame gap detector: a timed-out read marks the end of a
// frame.
type SerialPort struct {
	Dev      string
	Baudrate int
	Parity   serial.Parity
	Timeout  time.Duration
}

func (p *SerialPort) Open() (Port, error) {
	if p.Dev == "" {
		panic("empty SerialPort.Dev")
	}
	if p.Baudrate <= 0 {
		p.Baudrate = BAUDRATE
	}
	if p.Timeout <= 0 {
		p.Timeout = SERIAL_TIMEOUT
	}

	port, err := serial.Open(p.Dev,
		serial.WithBaudrate(p.Baudrate),
		serial.WithParity(p.Parity),
		serial.WithReadTimeout(int(p.Timeout.Milliseconds())),
		serial.WithWriteTimeout(int(p.Timeout.Milliseconds())))
	if err != nil {
		return nil, OpenErr{p.Dev, err}
	}
	return port, nil
}
