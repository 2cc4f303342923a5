package usbrf

import "testing"

func frskyHackTestIdentity() *FskIdentity {
	return &FskIdentity{Protocol: FrskyX, Addr: [2]byte{0xAB, 0xCD}}
}

func buildFrskyDataFrame(id *FskIdentity, hopIdx, chanskip, seqByte byte) []byte {
	l := id.Protocol.PacketLength()
	f := make([]byte, l)
	f[1] = id.Addr[0]
	f[2] = id.Addr[1]
	f[4] = (hopIdx & 0x3F) | ((chanskip & 0x3) << 6)
	f[5] = chanskip >> 2
	f[6] = 0x07
	f[21] = seqByte
	if id.Protocol.HasInnerCRC() {
		body := f[3 : l-4]
		crc := FrskyCRC(body)
		f[l-4] = byte(crc >> 8)
		f[l-3] = byte(crc)
	}
	return f
}

func newStartedFrskyHacker(t *testing.T, id *FskIdentity) (*FrskyHacker, *fakeRadio, *RcChannelBuffer) {
	t.Helper()
	radio := newFakeRadio()
	ant := &fakeAntenna{}
	rc := NewRcChannelBuffer()
	h := NewFrskyHacker(radio, NewTicker(), ant, DefaultConfig())
	h.SetRcBuffer(rc)
	h.init()

	arg := append([]byte{byte(id.Protocol)}, id.Addr[:]...)
	arg = append(arg, id.HopTable[:]...)
	h.parseArg(ExecStart, arg, 0, len(arg))
	h.start()
	return h, radio, rc
}

// A run of valid data frames pushes succPkts past the takeover threshold,
// switching the radio to transmit and the state machine to SEND (mirrors
// the DSSS hacker's takeover scenario for the FSK side).
func TestFrskyHackerReachesSendStateWithinThreshold(t *testing.T) {
	id := frskyHackTestIdentity()
	h, radio, _ := newStartedFrskyHacker(t, id)

	frame := buildFrskyDataFrame(id, 0, 1, 0x88) // no-telemetry sentinel in both nibbles
	frames := 0
	for frames < 30 {
		radio.deliver(frame)
		frames++
		if h.state == FrskyHackSend {
			break
		}
	}

	if h.state != FrskyHackSend {
		t.Fatalf("after %d frames, state = %v, want SEND", frames, h.state)
	}
	if radio.mode != ModeTX {
		t.Fatalf("expected radio mode TX on takeover, got %v", radio.mode)
	}
}

// A data frame whose sequence nibble isn't the no-telemetry sentinel only
// arms a wait for the telemetry frame due in the next slot; it does not
// itself advance recv_seq/send_seq or hop_idx. Those come from the
// separately-arriving telemetry frame's own sequence byte.
func TestFrskyHackerTelemetryFrameAdvancesSeqAndHop(t *testing.T) {
	id := frskyHackTestIdentity()
	h, radio, _ := newStartedFrskyHacker(t, id)

	dataFrame := buildFrskyDataFrame(id, 5, 3, 0x12) // hi=1, lo=2: not the 0x8 sentinel
	radio.deliver(dataFrame)

	if h.state != FrskyHackRecv {
		t.Fatalf("state = %v, want RECV", h.state)
	}
	if !h.awaitingTelem {
		t.Fatalf("expected hacker to be awaiting a telemetry frame")
	}
	if h.recvSeq != 0x8 || h.sendSeq != 0x8 {
		t.Fatalf("recvSeq/sendSeq = %d/%d should be untouched before the telemetry frame arrives", h.recvSeq, h.sendSeq)
	}

	telemFrame := buildFrskyDataFrame(id, 0, 0, 0x34) // own sequence byte, distinct from the data frame's
	radio.deliver(telemFrame)

	if h.awaitingTelem {
		t.Fatalf("expected awaitingTelem to clear once the telemetry frame arrived")
	}
	wantRecv, wantSend := AdvanceTelemetrySeq(0x34)
	if h.recvSeq != wantRecv || h.sendSeq != wantSend {
		t.Fatalf("recvSeq/sendSeq = %d/%d, want %d/%d", h.recvSeq, h.sendSeq, wantRecv, wantSend)
	}
	if h.hopIdx != NextHopIdx(5, 3) {
		t.Fatalf("hopIdx = %d, want %d", h.hopIdx, NextHopIdx(5, 3))
	}
}

// Regression: once takeover begins, the tick must keep re-arming itself so
// forged frames keep going out instead of stopping after the first one.
func TestFrskyHackerKeepsSendingAcrossTicks(t *testing.T) {
	id := frskyHackTestIdentity()
	h, radio, _ := newStartedFrskyHacker(t, id)

	frame := buildFrskyDataFrame(id, 0, 1, 0x88)
	for i := 0; i < 30 && h.state != FrskyHackSend; i++ {
		radio.deliver(frame)
	}
	if h.state != FrskyHackSend {
		t.Fatalf("hacker did not reach SEND state")
	}

	sentBefore := len(radio.sent)
	for i := 0; i < 5; i++ {
		h.tick.Advance(frskyRecvTicks + frskySendFudgeTicks + 1)
	}
	if h.state != FrskyHackSend {
		t.Fatalf("hacker fell out of SEND state after repeated ticks: %v", h.state)
	}
	if len(radio.sent) <= sentBefore {
		t.Fatalf("expected additional forged frames after repeated ticks, sent count stayed at %d", len(radio.sent))
	}
}

// Once sending, the forged frame carries the bound address and a valid
// trailing CRC over its own body.
func TestFrskyHackerForgedFrameCarriesValidCRC(t *testing.T) {
	id := frskyHackTestIdentity()
	h, radio, rc := newStartedFrskyHacker(t, id)

	values := make([]uint16, MaxRCChannels)
	for i := range values {
		values[i] = 1500
	}
	rc.SetChannels(values)

	frame := buildFrskyDataFrame(id, 0, 1, 0x88)
	for i := 0; i < 20 && h.state != FrskyHackSend; i++ {
		radio.deliver(frame)
	}
	if h.state != FrskyHackSend {
		t.Fatalf("hacker did not reach SEND state")
	}

	h.sendForged()
	if len(radio.sent) == 0 {
		t.Fatalf("expected a forged frame to have been sent")
	}
	forged := radio.sent[len(radio.sent)-1]

	if forged[1] != id.Addr[0] || forged[2] != id.Addr[1] {
		t.Fatalf("forged address = %#x,%#x, want %#x,%#x", forged[1], forged[2], id.Addr[0], id.Addr[1])
	}

	l := id.Protocol.PacketLength()
	body := forged[3 : l-4]
	want := FrskyCRC(body)
	got := uint16(forged[l-4])<<8 | uint16(forged[l-3])
	if want != got {
		t.Fatalf("forged trailing CRC = %#x, want %#x", got, want)
	}
}
