// internal/report/report_test.go
package report

import (
	"testing"
	"time"

	"github.com/bangzek/clock"

	"github.com/ptrev/modbusctl/protocol"
)

func TestReporter_StaticRegisters(t *testing.T) {
	r := New(23)
	if n := r.NumInput(); n != protocol.NumInputRegs {
		t.Fatalf("NumInput() = %d, want %d", n, protocol.NumInputRegs)
	}
	if v := r.Input(protocol.RegProtocol); v != protocol.Version {
		t.Errorf("protocol register = %d, want %d", v, protocol.Version)
	}
	if v := r.Input(protocol.RegFirmware); v != 23 {
		t.Errorf("firmware register = %d, want 23", v)
	}
}

func TestReporter_Uptime(t *testing.T) {
	saved := ctime
	defer func() { ctime = saved }()

	base := time.Date(2024, time.March, 2, 10, 11, 12, 0, time.UTC)
	// One Now per script entry: New samples the start, then each uptime
	// read advances the clock by the next step.
	mc := new(clock.Mock)
	mc.NowScripts = []time.Duration{
		time.Second,
		1500 * time.Millisecond,
		70 * time.Second,
	}
	ctime = mc
	mc.Start(base)
	defer mc.Stop()

	r := New(10)

	if v := r.Input(protocol.RegUptime); v != 1500 {
		t.Errorf("uptime = %d, want 1500", v)
	}

	// 71500 ms elapsed now; the register wraps at 65536.
	if v := r.Input(protocol.RegUptime); v != 71500-65536 {
		t.Errorf("uptime = %d, want %d", v, 71500-65536)
	}
}
