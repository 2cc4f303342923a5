package usbrf

import "testing"

func newStartedFrskyTransmitter(t *testing.T) (*FrskyTransmitter, *fakeRadio) {
	t.Helper()
	radio := newFakeRadio()
	ant := &fakeAntenna{}
	cfg := DefaultConfig()
	cfg.FrskyBindID = [2]byte{0x11, 0x22}
	for i := range cfg.FrskyHopTable {
		cfg.FrskyHopTable[i] = byte(i + 1)
	}

	tx := NewFrskyTransmitter(radio, NewTicker(), ant, cfg)
	tx.init()
	tx.parseArg(ExecStart, []byte{byte(FrskyX)}, 0, 1)
	tx.start()
	return tx, radio
}

// start() sends the first data frame carrying the bound address, and the
// synchronous send-done callback (mirroring the real chip's transmit-
// complete interrupt) advances hop_idx and arms a receive for telemetry.
func TestFrskyTransmitterStartSendsBoundAddressAndArmsTelemetryListen(t *testing.T) {
	tx, radio := newStartedFrskyTransmitter(t)

	if len(radio.sent) != 1 {
		t.Fatalf("got %d sent frames after start, want 1", len(radio.sent))
	}
	frame := radio.sent[0]
	if frame[1] != 0x11 || frame[2] != 0x22 {
		t.Fatalf("sent frame address = %#x,%#x, want 0x11,0x22", frame[1], frame[2])
	}
	if tx.hopIdx != 1 {
		t.Fatalf("hopIdx = %d, want 1 after the send-done advance", tx.hopIdx)
	}
	if radio.mode != ModeRX {
		t.Fatalf("expected radio mode RX while listening for telemetry, got %v", radio.mode)
	}
}

// A telemetry frame received between transmissions advances recv/send
// sequence per AdvanceTelemetrySeq, is retained via LastTelemetry, and
// triggers the next transmission.
func TestFrskyTransmitterParsesTelemetryAndSendsNext(t *testing.T) {
	tx, radio := newStartedFrskyTransmitter(t)

	telem := make([]byte, 29)
	telem[21] = 0x34 // hi=3, lo=4: not the 0x8 sentinel
	radio.deliver(telem)

	if tx.LastTelemetry() == nil {
		t.Fatalf("expected LastTelemetry to be populated")
	}
	wantRecv, wantSend := AdvanceTelemetrySeq(0x34)
	if tx.recvSeq != wantRecv || tx.sendSeq != wantSend {
		t.Fatalf("recvSeq/sendSeq = %d/%d, want %d/%d", tx.recvSeq, tx.sendSeq, wantRecv, wantSend)
	}
	if len(radio.sent) != 2 {
		t.Fatalf("got %d sent frames, want 2 (initial send plus the post-telemetry send)", len(radio.sent))
	}
	if tx.hopIdx != 2 {
		t.Fatalf("hopIdx = %d, want 2 after a second send-done advance", tx.hopIdx)
	}
}

// A short/garbled read (below the 22-byte telemetry-sequence-byte offset)
// is treated as a miss: no telemetry parse, just the next transmission.
func TestFrskyTransmitterShortReadSkipsTelemetryParse(t *testing.T) {
	tx, radio := newStartedFrskyTransmitter(t)
	radio.deliver(make([]byte, 10))

	if tx.LastTelemetry() != nil {
		t.Fatalf("expected no telemetry to be recorded from a short read")
	}
	if len(radio.sent) != 2 {
		t.Fatalf("got %d sent frames, want 2 (initial send plus the retry send)", len(radio.sent))
	}
}
