package usbrf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// A REQ_INFO frame fed into the host link triggers an INFO reply carrying
// the board id, firmware version, and both chips' manufacturer ids.
func TestDeviceInfoRepliesToReqInfo(t *testing.T) {
	var wire bytes.Buffer
	link := NewHostLinkOverStream(&wire)

	cyrf := newFakeRadio()
	cyrf.mfgID = 0x0102
	cc := newFakeRadio()
	cc.mfgID = 0x0304

	NewDeviceInfo(link, cyrf, cc)

	link.feed(hlFEND)
	link.feed(MsgReqInfo)
	link.feed(hlFEND)

	frame := wire.Bytes()
	if len(frame) == 0 {
		t.Fatalf("expected an INFO reply to have been written")
	}
	if frame[0] != hlFEND || frame[len(frame)-1] != hlFEND {
		t.Fatalf("reply should be FEND-framed")
	}
	body := frame[1 : len(frame)-1]
	if body[0] != MsgInfo {
		t.Fatalf("reply message id = %#x, want MsgInfo", body[0])
	}
	board := binary.LittleEndian.Uint32(body[1:5])
	if board != BoardID {
		t.Fatalf("board id = %d, want %d", board, BoardID)
	}
	sw := binary.LittleEndian.Uint32(body[5:9])
	if sw != SoftwareVersion() {
		t.Fatalf("software version = %d, want %d", sw, SoftwareVersion())
	}
	hw0 := binary.LittleEndian.Uint32(body[9:13])
	hw1 := binary.LittleEndian.Uint32(body[13:17])
	hw2 := binary.LittleEndian.Uint32(body[17:21])
	if hw0 != BoardID || hw1 != 0x0102 || hw2 != 0x0304 {
		t.Fatalf("hwID = [%d %d %d], want [%d 0x0102 0x0304]", hw0, hw1, hw2, BoardID)
	}
}

func TestSoftwareVersionEncoding(t *testing.T) {
	if SoftwareVersion() != 1_00_00 {
		t.Fatalf("SoftwareVersion() = %d, want 10000", SoftwareVersion())
	}
}
