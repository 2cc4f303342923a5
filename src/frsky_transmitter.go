package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	FSK Transmitter (supplemented feature 2): transmits data
 *		frames on a bound hop table/address, and between its own
 *		transmissions listens for and parses telemetry frames from
 *		the real receiver.
 *
 *		Grounded on protocol/frsky_transmitter.c (read in full):
 *		single SEND state, protocol_frsky_parse_telem, and
 *		protocol_frsky_build_packet — this is the "acting as the
 *		real transmitter" counterpart to frsky_hack.go's
 *		"impersonating the transmitter against someone else's
 *		receiver".
 *
 *------------------------------------------------------------------*/

// FrskyTransmitter implements the legitimate transmitter role.
type FrskyTransmitter struct {
	radio Radio
	tick  *Ticker
	ant   AntennaSwitch
	cfg   *Config
	rcBuf *RcChannelBuffer

	identity *FskIdentity
	tuning   *TuningTable

	hopIdx  byte
	recvSeq byte
	sendSeq byte

	lastTelemetry []byte

	running bool
}

// NewFrskyTransmitter constructs a FrskyTransmitter bound to the given
// collaborators and persisted config (the bound hop table/address come
// from a prior frsky_receiver.go bind, shared via cfg).
func NewFrskyTransmitter(radio Radio, tick *Ticker, ant AntennaSwitch, cfg *Config) *FrskyTransmitter {
	return &FrskyTransmitter{radio: radio, tick: tick, ant: ant, cfg: cfg, tuning: &TuningTable{}}
}

// SetRcBuffer wires the host-supplied channel buffer.
func (t *FrskyTransmitter) SetRcBuffer(b *RcChannelBuffer) {
	t.rcBuf = b
}

// Slot builds the ProtocolSlot vtable.
func (t *FrskyTransmitter) Slot() *ProtocolSlot {
	return &ProtocolSlot{
		Name:     "frsky_transmitter",
		Init:     t.init,
		Deinit:   t.deinit,
		Start:    t.start,
		Stop:     t.stop,
		Run:      t.run,
		Status:   t.status,
		ParseArg: t.parseArg,
	}
}

func (t *FrskyTransmitter) init() {
	t.radio.OnRecvReady(t.onRecv)
	t.radio.OnSendDone(t.onSend)
	t.tick.OnExpire(t.onTick)
}

func (t *FrskyTransmitter) deinit() {
	t.tick.Stop()
	_ = t.radio.AbortReceive()
	t.radio.OnRecvReady(nil)
	t.radio.OnSendDone(nil)
}

// parseArg implements §6's "FSK receiver/transmitter (type=START):
// protocol:u8", sourcing the bound address/hop table from persisted
// config rather than the host (the transmitter role only makes sense
// after a successful bind).
func (t *FrskyTransmitter) parseArg(et ExecType, data []byte, offset, total int) {
	if et != ExecStart || len(data) < 1 {
		return
	}
	id := &FskIdentity{Protocol: FrskyProtocol(data[0])}
	id.Addr = t.cfg.FrskyBindID
	copy(id.HopTable[:], t.cfg.FrskyHopTable[:FrskyHopChannels])
	id.FSCtrl0 = t.cfg.CcFsctrl0
	t.identity = id
}

func (t *FrskyTransmitter) start() {
	if t.identity == nil {
		return
	}
	t.running = true
	t.hopIdx = 0
	t.recvSeq = 0x8
	t.sendSeq = 0x8
	_ = t.ant.Select(ChipFSK)
	_ = t.radio.SetMode(ModeTX)
	t.sendNext()
}

func (t *FrskyTransmitter) stop() {
	t.running = false
	t.tick.Stop()
	_ = t.radio.AbortReceive()
}

func (t *FrskyTransmitter) status() string { return "frsky_transmitter" }

func (t *FrskyTransmitter) run() {}

func (t *FrskyTransmitter) onTick() {
	if !t.running {
		return
	}
	// Tick expiry while waiting for telemetry: give up on this slot and
	// advance to the next transmission (§4.5/§9 "do not propagate").
	t.sendNext()
}

func (t *FrskyTransmitter) armHop() {
	ch := t.identity.HopTable[t.hopIdx]
	_ = t.radio.Program(RFParams{
		Channel: ch,
		FSCal1:  t.tuning.FSCal1[t.hopIdx],
		FSCal2:  t.tuning.FSCal2,
		FSCal3:  t.tuning.FSCal3,
		FSCtrl0: t.identity.FSCtrl0,
	})
}

func (t *FrskyTransmitter) sendNext() {
	t.armHop()
	_ = t.radio.SetMode(ModeTX)
	frame := t.buildPacket()
	_ = t.radio.Send(frame)
}

// buildPacket implements protocol_frsky_build_packet: address, hop/seq
// header, and channel data sourced from the host-supplied RcChannelBuffer.
func (t *FrskyTransmitter) buildPacket() []byte {
	l := t.identity.Protocol.PacketLength()
	frame := make([]byte, l)
	frame[1] = t.identity.Addr[0]
	frame[2] = t.identity.Addr[1]
	frame[4] = t.hopIdx & 0x3F
	frame[21] = (t.recvSeq << 4) | t.sendSeq

	if t.rcBuf != nil {
		channels := t.rcBuf.Channels()
		for i := 0; i < len(channels) && 7+i*2+1 < l-4; i++ {
			word := PackChannelWord(byte(i), channels[i])
			frame[7+i*2] = byte(word >> 8)
			frame[7+i*2+1] = byte(word)
		}
	}

	if t.identity.Protocol.HasInnerCRC() {
		body := frame[3 : l-4]
		crc := FrskyCRC(body)
		frame[l-4] = byte(crc >> 8)
		frame[l-3] = byte(crc)
	}
	return frame
}

func (t *FrskyTransmitter) onSend(ev RadioEvent) {
	if !t.running {
		return
	}
	t.hopIdx = (t.hopIdx + 1) % FrskyHopChannels
	// Between transmissions, listen for the receiver's telemetry uplink
	// (protocol_frsky_parse_telem, supplemented feature 2).
	_ = t.radio.SetMode(ModeRX)
	_ = t.radio.StartReceive()
	t.tick.Set(frskyTelemTicks)
}

func (t *FrskyTransmitter) onRecv(ev RadioEvent) {
	if !t.running || ev.Error {
		return
	}
	packet, err := t.radio.ReadPayload(t.identity.Protocol.PacketLength())
	if err != nil || len(packet) < 22 {
		t.sendNext()
		return
	}
	t.parseTelemetry(packet)
	t.lastTelemetry = packet
	t.sendNext()
}

// parseTelemetry implements protocol_frsky_parse_telem's nibble-based
// sequence advance (§4.5 "Telemetry sequence").
func (t *FrskyTransmitter) parseTelemetry(packet []byte) {
	t.recvSeq, t.sendSeq = AdvanceTelemetrySeq(packet[21])
}

// LastTelemetry returns the most recently received telemetry frame, or
// nil if none has arrived yet.
func (t *FrskyTransmitter) LastTelemetry() []byte {
	return t.lastTelemetry
}
