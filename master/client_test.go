// master/client_test.go
package master

import (
	"errors"
	"testing"
	"time"

	"github.com/ptrev/modbusctl/protocol"
)

// ---- fake modbus client ----

type writeCall struct {
	addr uint16
	qty  uint16
	regs []uint16
}

type fakeWire struct {
	inputs   map[uint16]uint16
	inputErr error

	writes []writeCall

	// holds holds the successive ReadHoldingRegisters replies; the last
	// entry repeats once the script runs out.
	holds     [][]uint16
	holdCalls int
}

func (f *fakeWire) ReadInputRegisters(addr, qty uint16) ([]byte, error) {
	if f.inputErr != nil {
		return nil, f.inputErr
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.inputs[addr+uint16(i)]
	}
	return regsToBytes(out), nil
}

func (f *fakeWire) ReadHoldingRegisters(addr, qty uint16) ([]byte, error) {
	i := f.holdCalls
	if i >= len(f.holds) {
		i = len(f.holds) - 1
	}
	f.holdCalls++
	regs := f.holds[i]
	if int(qty) < len(regs) {
		regs = regs[:qty]
	}
	return regsToBytes(regs), nil
}

func (f *fakeWire) WriteMultipleRegisters(addr, qty uint16, value []byte) ([]byte, error) {
	f.writes = append(f.writes, writeCall{addr: addr, qty: qty, regs: bytesToRegs(value)})
	return nil, nil
}

// ---- helpers ----

func newClient(fw *fakeWire) *Client {
	return &Client{
		cfg: Config{
			Timeout:    DEFAULT_TIMEOUT,
			CmdTimeout: DEFAULT_CMD_TIMEOUT,
		},
		wire: fw,
	}
}

// done builds a holding reply for a completed command.
func done(code uint16, params ...uint16) []uint16 {
	return append([]uint16{code &^ (protocol.FlagPending | protocol.FlagError)}, params...)
}

func failed(code uint16, ecode int16) []uint16 {
	return []uint16{(code &^ protocol.FlagPending) | protocol.FlagError, uint16(ecode)}
}

func pending(code uint16) []uint16 {
	return []uint16{code, 0, 0, 0}
}

// ---- tests ----

func TestInputReads(t *testing.T) {
	fw := &fakeWire{inputs: map[uint16]uint16{
		protocol.RegProtocol: protocol.Version,
		protocol.RegFirmware: 23,
		protocol.RegUptime:   1500,
	}}
	c := newClient(fw)

	if err := c.checkProtocolVersion(); err != nil {
		t.Fatalf("checkProtocolVersion: %v", err)
	}

	v, err := c.ProtocolVersion()
	if err != nil || v != protocol.Version {
		t.Errorf("ProtocolVersion() = %d, %v", v, err)
	}

	major, minor, err := c.FirmwareVersion()
	if err != nil || major != 2 || minor != 3 {
		t.Errorf("FirmwareVersion() = %d.%d, %v", major, minor, err)
	}

	up, err := c.Uptime()
	if err != nil || up != 1500*time.Millisecond {
		t.Errorf("Uptime() = %v, %v", up, err)
	}
}

func TestVersionMismatch(t *testing.T) {
	fw := &fakeWire{inputs: map[uint16]uint16{protocol.RegProtocol: 20}}
	c := newClient(fw)

	err := c.checkProtocolVersion()
	var verr *VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("checkProtocolVersion: want *VersionError, got %v", err)
	}
	if verr.Want != protocol.Version || verr.Got != 20 {
		t.Errorf("mismatch = %d/%d", verr.Want, verr.Got)
	}
}

func TestExecute_PollsUntilDone(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		pending(protocol.CmdTest),
		pending(protocol.CmdTest),
		done(protocol.CmdTest, 7, 8),
	}}
	c := newClient(fw)

	out, err := c.Execute(protocol.CmdTest, []uint16{7, 8}, 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) != 2 || out[0] != 7 || out[1] != 8 {
		t.Errorf("out = %v, want [7 8]", out)
	}
	if fw.holdCalls != 3 {
		t.Errorf("holding polls = %d, want 3", fw.holdCalls)
	}

	if len(fw.writes) != 1 {
		t.Fatalf("writes = %v, want one", fw.writes)
	}
	w := fw.writes[0]
	if w.addr != 0 || w.qty != 3 {
		t.Errorf("write addr/qty = %d/%d, want 0/3", w.addr, w.qty)
	}
	want := []uint16{protocol.CmdTest, 7, 8}
	for i := range want {
		if w.regs[i] != want[i] {
			t.Errorf("write reg %d = 0x%04X, want 0x%04X", i, w.regs[i], want[i])
		}
	}
}

func TestExecute_SlaveError(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		failed(0x8999, protocol.ErrIllegalCmd),
	}}
	c := newClient(fw)

	_, err := c.Execute(0x8999, nil, 0)
	var cerr *protocol.CmdError
	if !errors.As(err, &cerr) {
		t.Fatalf("Execute: want *protocol.CmdError, got %v", err)
	}
	if cerr.Code != protocol.ErrIllegalCmd {
		t.Errorf("code = %d, want %d", cerr.Code, protocol.ErrIllegalCmd)
	}
}

func TestExecute_Timeout(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		pending(protocol.CmdTest),
	}}
	c := newClient(fw)
	c.cfg.CmdTimeout = time.Millisecond

	_, err := c.Execute(protocol.CmdTest, nil, 0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute: want ErrTimeout, got %v", err)
	}
}

func TestExecute_TimeoutOverrideRestored(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		done(protocol.CmdDelay, 0),
	}}
	c := newClient(fw)

	var set []time.Duration
	c.setTimeout = func(d time.Duration) { set = append(set, d) }

	if err := c.Delay(50 * time.Millisecond); err != nil {
		t.Fatalf("Delay: %v", err)
	}

	want := []time.Duration{
		50*time.Millisecond + c.cfg.CmdTimeout,
		c.cfg.Timeout,
	}
	if len(set) != len(want) || set[0] != want[0] || set[1] != want[1] {
		t.Errorf("timeout changes = %v, want %v", set, want)
	}
}

func TestSetPin(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		done(protocol.CmdSetPin, 0),
	}}
	c := newClient(fw)

	if err := c.SetPin(13, true); err != nil {
		t.Fatalf("SetPin: %v", err)
	}
	w := fw.writes[0]
	want := []uint16{protocol.CmdSetPin, 13, 1}
	for i := range want {
		if w.regs[i] != want[i] {
			t.Errorf("write reg %d = 0x%04X, want 0x%04X", i, w.regs[i], want[i])
		}
	}
}

func TestReadPin(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		done(protocol.CmdGetPin, 5, 1),
	}}
	c := newClient(fw)

	high, err := c.ReadPin(5)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if !high {
		t.Error("ReadPin(5) = false, want true")
	}

	fw.holds = [][]uint16{done(protocol.CmdGetPin, 5, 0)}
	fw.holdCalls = 0
	high, err = c.ReadPin(5)
	if err != nil {
		t.Fatalf("ReadPin: %v", err)
	}
	if high {
		t.Error("ReadPin(5) = true, want false")
	}
}

func TestTest_EchoesParams(t *testing.T) {
	fw := &fakeWire{holds: [][]uint16{
		done(protocol.CmdTest, 1, 2, 3),
	}}
	c := newClient(fw)

	out, err := c.Test(1, 2, 3)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Errorf("out = %v, want [1 2 3]", out)
	}
}
