// protocol/protocol_test.go
package protocol

import "testing"

func TestCommandLiteralsCarryPendingFlag(t *testing.T) {
	for _, code := range []uint16{CmdSetPin, CmdGetPin, CmdDelay, CmdDelayExclusive, CmdTest} {
		if code&FlagPending == 0 {
			t.Errorf("%s (0x%04X) lacks the pending bit", CmdName(code), code)
		}
		if code&FlagError != 0 {
			t.Errorf("%s (0x%04X) carries the error bit", CmdName(code), code)
		}
	}
}

func TestErrorCodeWire(t *testing.T) {
	e := &CmdError{Code: ErrIllegalParam}
	if w := e.CodeWord(); w != 0xFFFE {
		t.Errorf("CodeWord() = 0x%04X, want 0xFFFE", w)
	}
	if got := DecodeCode(0xFFFF); got != ErrIllegalCmd {
		t.Errorf("DecodeCode(0xFFFF) = %d, want %d", got, ErrIllegalCmd)
	}
	if e.Error() != "command failed: illegal parameter" {
		t.Errorf("Error() = %q", e.Error())
	}
}
