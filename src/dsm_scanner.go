package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	DSSS scanner (supplemented feature 3): brute-forces
 *		(channel, dsm2-flag, sop_col) triples on a fixed dwell,
 *		looking for any DSSS transmitter regardless of identity.
 *
 *		Grounded on protocol/dsm_scanner.c: nested sweep over the
 *		dsm2 flag, then sop_col 0..7, then channel 0..DSM_MAX_CHANNEL,
 *		with the dwell computed from DSM_RECV_TIME*(DSM_MAX_USED_
 *		CHANNELS+1)/2. A host-supplied restriction list (§6's
 *		"{channel, row_col} pairs" contract) narrows the sweep to
 *		just the given channels when present.
 *
 *------------------------------------------------------------------*/

// dsmScannerDwellTicks is the per-step dwell time, using the original's
// formula with DSM_RECV_TIME standing for the base receive-slot constant
// (dsmRecvATicks, §4.4).
const dsmScannerDwellTicks = dsmRecvATicks * (DSMXChannels + 1) / 2

type dsmScanTriple struct {
	channel byte
	isDSM2  bool
	sopCol  byte
}

// DsmScanner implements the brute-force sweep.
type DsmScanner struct {
	radio Radio
	tick  *Ticker
	ant   AntennaSwitch

	restrict []byte // host-supplied channel restriction list, if any

	sweep []dsmScanTriple
	idx   int

	lastHit *dsmScanTriple

	running bool
}

// NewDsmScanner constructs a DsmScanner bound to the given collaborators.
func NewDsmScanner(radio Radio, tick *Ticker, ant AntennaSwitch) *DsmScanner {
	return &DsmScanner{radio: radio, tick: tick, ant: ant}
}

// Slot builds the ProtocolSlot vtable.
func (s *DsmScanner) Slot() *ProtocolSlot {
	return &ProtocolSlot{
		Name:     "dsm_scanner",
		Init:     s.init,
		Deinit:   s.deinit,
		Start:    s.start,
		Stop:     s.stop,
		Run:      s.run,
		Status:   s.status,
		ParseArg: s.parseArg,
	}
}

func (s *DsmScanner) init() {
	s.radio.OnRecvReady(s.onRecv)
	s.tick.OnExpire(s.onTick)
}

func (s *DsmScanner) deinit() {
	s.tick.Stop()
	_ = s.radio.AbortReceive()
	s.radio.OnRecvReady(nil)
}

// parseArg accepts a variable-length list of channel bytes restricting the
// sweep (§6 DSSS/FSK scanner contract); an empty/absent list means "sweep
// every channel".
func (s *DsmScanner) parseArg(t ExecType, data []byte, offset, total int) {
	if t != ExecStart {
		return
	}
	s.restrict = append(s.restrict, data...)
}

func (s *DsmScanner) channels() []byte {
	if len(s.restrict) > 0 {
		return s.restrict
	}
	chans := make([]byte, DSMMaxChannel+1)
	for i := range chans {
		chans[i] = byte(i)
	}
	return chans
}

func (s *DsmScanner) buildSweep() {
	s.sweep = s.sweep[:0]
	for _, dsm2 := range []bool{false, true} {
		for sop := byte(0); sop < 8; sop++ {
			for _, ch := range s.channels() {
				s.sweep = append(s.sweep, dsmScanTriple{channel: ch, isDSM2: dsm2, sopCol: sop})
			}
		}
	}
}

func (s *DsmScanner) start() {
	s.buildSweep()
	s.idx = 0
	s.lastHit = nil
	s.running = true
	_ = s.ant.Select(ChipDSSS)
	s.armNext()
}

func (s *DsmScanner) stop() {
	s.running = false
	s.tick.Stop()
	_ = s.radio.AbortReceive()
}

func (s *DsmScanner) status() string {
	if s.lastHit != nil {
		return "hit"
	}
	return "scanning"
}

func (s *DsmScanner) run() {}

func (s *DsmScanner) armNext() {
	if len(s.sweep) == 0 {
		return
	}
	t := s.sweep[s.idx]
	row := PnRow(t.channel, !t.isDSM2)
	dataCol := 7 - t.sopCol
	setup := RFParams{
		Channel:  t.channel,
		SOPCode:  PnCodes.Codes[row][t.sopCol],
		DataCode: PnCodes.Codes[row][dataCol],
	}
	_ = s.radio.Program(setup)
	_ = s.radio.SetMode(ModeRX)
	_ = s.radio.StartReceive()
	s.tick.Set(dsmScannerDwellTicks)
}

func (s *DsmScanner) onTick() {
	if !s.running {
		return
	}
	s.idx = (s.idx + 1) % len(s.sweep)
	s.armNext()
}

func (s *DsmScanner) onRecv(ev RadioEvent) {
	if !s.running || ev.Error {
		return
	}
	hit := s.sweep[s.idx]
	s.lastHit = &hit
}
