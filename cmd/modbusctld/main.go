// cmd/modbusctld/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/ptrev/modbusctl/internal/command"
	"github.com/ptrev/modbusctl/internal/config"
	"github.com/ptrev/modbusctl/internal/logging"
	"github.com/ptrev/modbusctl/internal/pin"
	"github.com/ptrev/modbusctl/internal/regfile"
	"github.com/ptrev/modbusctl/internal/report"
	"github.com/ptrev/modbusctl/internal/transport"
)

var cfgPath = flag.String("config", "modbusctld.yaml", "path to config file")

func main() {
	flag.Parse()
	defer glog.Flush()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		glog.Exitf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		glog.Exitf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	s := cfg.Slave

	log := logging.Glog{}

	// --------------------
	// Build the slave stack
	// --------------------

	reporter := report.New(s.FirmwareVersion)

	policy := regfile.WholeBlock
	if s.Addressing == "sub_range" {
		policy = regfile.SubRange
	}
	bank, err := regfile.New(s.HoldingRegs, policy, reporter)
	if err != nil {
		glog.Exitf("register bank: %v", err)
	}

	var drv command.Driver
	switch s.Pins.Driver {
	case "gpiod":
		g, err := pin.NewGpiod(s.Pins.GpioChip)
		if err != nil {
			glog.Exitf("pin driver: %v", err)
		}
		defer g.Close()
		drv = g
	default:
		drv = pin.NewSim()
	}

	parity, err := transport.ParseParity(s.Serial.Parity)
	if err != nil {
		glog.Exitf("serial: %v", err)
	}
	port, err := (&transport.SerialPort{
		Dev:      s.Serial.Device,
		Baudrate: s.Serial.Baud,
		Parity:   parity,
		Timeout:  time.Duration(s.Serial.TimeoutMs) * time.Millisecond,
	}).Open()
	if err != nil {
		glog.Exitf("serial: %v", err)
	}

	tr, err := transport.New(port, s.UnitID, bank, log)
	if err != nil {
		glog.Exitf("transport: %v", err)
	}
	defer tr.Close()

	disp := command.New(bank, drv, tr, command.Config{
		OutputAllow: s.Pins.OutputAllow,
		InputDeny:   s.Pins.InputDeny,
		DelayDrops:  s.DelayPolicy == "drop",
	}, log)

	// --------------------
	// Poll loop: transport first, then command dispatch. Everything
	// runs on this one goroutine; that ordering is the concurrency
	// model.
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	glog.Infof("modbusctld: unit %d on %s (%d baud, %d holding registers)",
		s.UnitID, s.Serial.Device, s.Serial.Baud, s.HoldingRegs)

	for ctx.Err() == nil {
		if err := tr.Poll(); err != nil {
			glog.Errorf("poll: %v", err)
			time.Sleep(time.Second)
			continue
		}
		disp.Poll()
	}
	glog.Infof("modbusctld: shutting down")
}
