// cmd/modbusctl/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/ptrev/modbusctl/master"
)

var (
	device   = flag.String("dev", "/dev/ttyUSB0", "serial device of the slave")
	baud     = flag.Int("baud", master.DEFAULT_BAUD, "baud rate")
	unitID   = flag.Int("id", 1, "slave unit id")
	bootWait = flag.Duration("boot-wait", 0, "wait after opening the port (Arduino bootloader)")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] COMMAND [args]\n"+
		"Commands:\n"+
		"  version            read protocol and firmware version\n"+
		"  uptime             read slave uptime\n"+
		"  set-pin PIN 0|1    drive an output pin\n"+
		"  get-pin PIN        sample an input pin (pullup)\n"+
		"  delay MS           block the slave for MS milliseconds\n"+
		"  delay-x MS         same, with reception suspended\n"+
		"  test [VALUES...]   no-op pass-through command\n"+
		"  watch PINOUT PININ toggle PINOUT and sample PININ forever\n",
		os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	c, err := master.Open(master.Config{
		Device:   *device,
		Baud:     *baud,
		UnitID:   byte(*unitID),
		BootWait: *bootWait,
	})
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer c.Close()

	if err := run(c, args[0], args[1:]); err != nil {
		glog.Exitf("%s: %v", args[0], err)
	}
}

func run(c *master.Client, verb string, args []string) error {
	switch verb {
	case "version":
		pv, err := c.ProtocolVersion()
		if err != nil {
			return err
		}
		major, minor, err := c.FirmwareVersion()
		if err != nil {
			return err
		}
		fmt.Printf("protocol v%d.%d firmware v%d.%d\n", pv/10, pv%10, major, minor)
		return nil

	case "uptime":
		up, err := c.Uptime()
		if err != nil {
			return err
		}
		fmt.Printf("%v\n", up)
		return nil

	case "set-pin":
		if len(args) != 2 {
			usage()
		}
		pin := parseU16(args[0])
		return c.SetPin(pin, args[1] == "1")

	case "get-pin":
		if len(args) != 1 {
			usage()
		}
		high, err := c.ReadPin(parseU16(args[0]))
		if err != nil {
			return err
		}
		if high {
			fmt.Println("1")
		} else {
			fmt.Println("0")
		}
		return nil

	case "delay":
		if len(args) != 1 {
			usage()
		}
		return c.Delay(time.Duration(parseU16(args[0])) * time.Millisecond)

	case "delay-x":
		if len(args) != 1 {
			usage()
		}
		return c.DelayExclusive(time.Duration(parseU16(args[0])) * time.Millisecond)

	case "test":
		params := make([]uint16, len(args))
		for i, a := range args {
			params[i] = parseU16(a)
		}
		out, err := c.Test(params...)
		if err != nil {
			return err
		}
		fmt.Printf("%v\n", out)
		return nil

	case "watch":
		if len(args) != 2 {
			usage()
		}
		return watch(c, parseU16(args[0]), parseU16(args[1]))

	default:
		usage()
		return nil
	}
}

// watch runs the classic demo loop: toggle an output pin once a second
// and sample an input pin in between, printing slave uptime as it goes.
func watch(c *master.Client, pinOut, pinIn uint16) error {
	state := true
	for {
		up, err := c.Uptime()
		if err != nil {
			return err
		}
		if err := c.SetPin(pinOut, state); err != nil {
			return err
		}
		high, err := c.ReadPin(pinIn)
		if err != nil {
			return err
		}
		fmt.Printf("uptime %v  pin %d <- %v  pin %d = %v\n",
			up, pinOut, state, pinIn, high)
		state = !state

		if err := c.Delay(time.Second); err != nil {
			return err
		}
	}
}

func parseU16(s string) uint16 {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		glog.Exitf("invalid number %q", s)
	}
	return uint16(v)
}
