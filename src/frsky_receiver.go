package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	FSK Receiver (§4.6), the legitimate binding path: tune the
 *		crystal trim, listen on the bind channel until the full
 *		47-entry hop table has been learned, then synchronize and
 *		receive like the hacker but without ever transmitting.
 *
 *		Grounded on protocol/frsky_receiver.c (read in full):
 *		states TUNE/FINETUNE/BIND/SYNC/RECV, the coarse/fine tune
 *		sweep and bind-bitmap logic now shared via frsky.go.
 *
 *------------------------------------------------------------------*/

// FrskyRecvState mirrors protocol/frsky_receiver.c's five states.
type FrskyRecvState int

const (
	FrskyRecvTune FrskyRecvState = iota
	FrskyRecvFinetune
	FrskyRecvBind
	FrskyRecvSync
	FrskyRecvRecv
)

// FrskyReceiver implements §4.6.
type FrskyReceiver struct {
	radio Radio
	tick  *Ticker
	ant   AntennaSwitch
	cfg   *Config

	identity *FskIdentity
	tuning   *TuningTable

	state FrskyRecvState

	coarseSweep []int8
	fineSweep   []int8
	sweepIdx    int
	tuneMin     int8
	tuneMax     int8
	haveMin     bool

	hopIdx    byte
	missCount int

	persist func(*Config) error

	running bool
}

// NewFrskyReceiver constructs a FrskyReceiver bound to the given
// collaborators and persisted config.
func NewFrskyReceiver(radio Radio, tick *Ticker, ant AntennaSwitch, cfg *Config) *FrskyReceiver {
	return &FrskyReceiver{radio: radio, tick: tick, ant: ant, cfg: cfg, tuning: &TuningTable{}}
}

// SetPersistFunc wires the callback used to persist config on successful
// bind (§4.6 "persisting fsctrl0, frsky_bound=true, ..."). Tests can
// observe persistence without real flash storage.
func (r *FrskyReceiver) SetPersistFunc(f func(*Config) error) {
	r.persist = f
}

// Slot builds the ProtocolSlot vtable.
func (r *FrskyReceiver) Slot() *ProtocolSlot {
	return &ProtocolSlot{
		Name:     "frsky_receiver",
		Init:     r.init,
		Deinit:   r.deinit,
		Start:    r.start,
		Stop:     r.stop,
		Run:      r.run,
		Status:   r.status,
		ParseArg: r.parseArg,
	}
}

func (r *FrskyReceiver) init() {
	r.radio.OnRecvReady(r.onRecv)
	r.tick.OnExpire(r.onTick)
}

func (r *FrskyReceiver) deinit() {
	r.tick.Stop()
	_ = r.radio.AbortReceive()
	r.radio.OnRecvReady(nil)
}

// parseArg implements §6's "FSK receiver/transmitter (type=START):
// protocol:u8".
func (r *FrskyReceiver) parseArg(t ExecType, data []byte, offset, total int) {
	if t != ExecStart || len(data) < 1 {
		return
	}
	r.identity = &FskIdentity{Protocol: FrskyProtocol(data[0])}
}

func (r *FrskyReceiver) start() {
	if r.identity == nil {
		return
	}
	r.running = true
	r.coarseSweep = TuneCoarseSweep()
	r.sweepIdx = 0
	r.haveMin = false
	r.state = FrskyRecvTune
	_ = r.ant.Select(ChipFSK)
	r.armTune(r.coarseSweep[0])
}

func (r *FrskyReceiver) stop() {
	r.running = false
	r.tick.Stop()
	_ = r.radio.AbortReceive()
}

func (r *FrskyReceiver) status() string { return "frsky_receiver" }

func (r *FrskyReceiver) run() {}

func (r *FrskyReceiver) armTune(trim int8) {
	_ = r.radio.Program(RFParams{Channel: FrskyBindChannel, FSCtrl0: trim})
	_ = r.radio.SetMode(ModeRX)
	_ = r.radio.StartReceive()
	r.tick.Set(frskyRecvTicks)
}

func (r *FrskyReceiver) armBind() {
	_ = r.radio.Program(RFParams{Channel: FrskyBindChannel})
	_ = r.radio.SetMode(ModeRX)
	_ = r.radio.StartReceive()
	r.tick.Set(frskyRecvTicks)
}

func (r *FrskyReceiver) armHop() {
	ch := r.identity.HopTable[r.hopIdx]
	_ = r.radio.Program(RFParams{
		Channel: ch,
		FSCal1:  r.tuning.FSCal1[r.hopIdx],
		FSCal2:  r.tuning.FSCal2,
		FSCal3:  r.tuning.FSCal3,
		FSCtrl0: r.identity.FSCtrl0,
	})
	_ = r.radio.SetMode(ModeRX)
	_ = r.radio.StartReceive()
}

func (r *FrskyReceiver) onTick() {
	if !r.running {
		return
	}
	switch r.state {
	case FrskyRecvTune:
		r.sweepIdx++
		if r.sweepIdx >= len(r.coarseSweep) {
			r.startFinetune()
			return
		}
		r.armTune(r.coarseSweep[r.sweepIdx])
	case FrskyRecvFinetune:
		r.sweepIdx++
		if r.sweepIdx >= len(r.fineSweep) {
			r.finishTuning()
			return
		}
		r.armTune(r.fineSweep[r.sweepIdx])
	case FrskyRecvBind:
		r.armBind()
	case FrskyRecvSync:
		r.state = FrskyRecvRecv
		r.armHop()
		r.tick.Set(frskyRecvTicks)
	case FrskyRecvRecv:
		r.missCount++
		if r.missCount > frskyMissLimit {
			r.state = FrskyRecvSync
			r.tick.Set(dsmSyncRecvTicks)
			return
		}
		r.armHop()
		r.tick.Set(frskyRecvTicks)
	}
}

func (r *FrskyReceiver) startFinetune() {
	if !r.haveMin {
		// No bind frame seen during the coarse sweep; restart it
		// rather than compute a fine sweep over an empty range.
		r.sweepIdx = 0
		r.armTune(r.coarseSweep[0])
		return
	}
	r.fineSweep = TuneFineSweep(r.tuneMin, r.tuneMax)
	r.sweepIdx = 0
	r.state = FrskyRecvFinetune
	r.armTune(r.fineSweep[0])
}

func (r *FrskyReceiver) finishTuning() {
	r.identity.FSCtrl0 = TuneResult(r.tuneMin, r.tuneMax)
	r.state = FrskyRecvBind
	r.armBind()
}

func (r *FrskyReceiver) onRecv(ev RadioEvent) {
	if !r.running || ev.Error {
		return
	}
	switch r.state {
	case FrskyRecvTune, FrskyRecvFinetune:
		r.noteTuneHit()
	case FrskyRecvBind:
		r.handleBind()
	case FrskyRecvSync, FrskyRecvRecv:
		packet, err := r.radio.ReadPayload(r.identity.Protocol.PacketLength())
		if err != nil || !ValidateDataPacket(r.identity, packet, r.radio.CRCOK()) {
			return
		}
		r.missCount = 0
		chanskip, reportedIdx := ExtractChanskip(packet)
		r.hopIdx = NextHopIdx(reportedIdx, chanskip)
		r.state = FrskyRecvRecv
		r.armHop()
		r.tick.Set(frskyRecvTicks)
	}
}

func (r *FrskyReceiver) noteTuneHit() {
	trim := r.currentTrim()
	if r.state == FrskyRecvTune {
		if !r.haveMin {
			r.tuneMin, r.tuneMax = trim, trim
			r.haveMin = true
		} else {
			if trim < r.tuneMin {
				r.tuneMin = trim
			}
			if trim > r.tuneMax {
				r.tuneMax = trim
			}
		}
	} else {
		if trim < r.tuneMin {
			r.tuneMin = trim
		}
		if trim > r.tuneMax {
			r.tuneMax = trim
		}
	}
}

func (r *FrskyReceiver) currentTrim() int8 {
	if r.state == FrskyRecvTune {
		return r.coarseSweep[r.sweepIdx]
	}
	return r.fineSweep[r.sweepIdx]
}

func (r *FrskyReceiver) handleBind() {
	packet, err := r.radio.ReadPayload(11)
	if err != nil {
		return
	}
	idx, slice, ok := ValidateBindPacket(packet)
	if !ok {
		return
	}
	if len(packet) > 2 {
		r.identity.Addr[0] = packet[2]
		r.identity.Addr[1] = packet[3]
	}
	complete := r.identity.NoteBindSlice(idx, slice)
	if complete {
		r.finishBind()
	}
}

func (r *FrskyReceiver) finishBind() {
	r.cfg.CcFsctrl0 = r.identity.FSCtrl0
	r.cfg.CcTuned = true
	r.cfg.FrskyBindID = r.identity.Addr
	copy(r.cfg.FrskyHopTable[:], r.identity.HopTable[:])
	r.cfg.FrskyBound = true

	if r.persist != nil {
		_ = r.persist(r.cfg)
	}

	r.hopIdx = 0
	r.state = FrskyRecvSync
	r.tick.Set(dsmSyncRecvTicks)
}
