package usbrf

// fakeRadio is a minimal, synchronous Radio double: Send/StartReceive do
// nothing but record state, and tests drive reception by calling deliver()
// directly, mirroring how the real chip driver's PollStatus() raises the
// registered callback.
type fakeRadio struct {
	mode Mode

	lastProgram RFParams
	sent        [][]byte

	recvCB func(RadioEvent)
	sendCB func(RadioEvent)

	nextPayload []byte
	crcOK       bool
	mfgID       uint16
}

func newFakeRadio() *fakeRadio { return &fakeRadio{crcOK: true, mfgID: 0x1234} }

func (r *fakeRadio) Reset() error                    { return nil }
func (r *fakeRadio) ManufacturerID() (uint16, error) { return r.mfgID, nil }
func (r *fakeRadio) SetMode(m Mode) error            { r.mode = m; return nil }
func (r *fakeRadio) SetChannel(ch byte) error         { return nil }
func (r *fakeRadio) Program(p RFParams) error         { r.lastProgram = p; return nil }
func (r *fakeRadio) StartReceive() error              { return nil }
func (r *fakeRadio) AbortReceive() error              { return nil }

func (r *fakeRadio) Send(buf []byte) error {
	r.sent = append(r.sent, append([]byte(nil), buf...))
	if r.sendCB != nil {
		r.sendCB(RadioEvent{Kind: EventSendDone})
	}
	return nil
}

func (r *fakeRadio) ReadPayload(length int) ([]byte, error) {
	if len(r.nextPayload) > length {
		return r.nextPayload[:length], nil
	}
	return r.nextPayload, nil
}

func (r *fakeRadio) CRCOK() bool { return r.crcOK }

func (r *fakeRadio) OnRecvReady(cb func(RadioEvent)) { r.recvCB = cb }
func (r *fakeRadio) OnSendDone(cb func(RadioEvent))  { r.sendCB = cb }

func (r *fakeRadio) Calibrate() (byte, error) { return 0, nil }

// deliver feeds payload as the next received frame and fires the recv
// callback, the way PollStatus() does for a real chip driver.
func (r *fakeRadio) deliver(payload []byte) {
	r.nextPayload = payload
	if r.recvCB != nil {
		r.recvCB(RadioEvent{Kind: EventRecvReady, Length: len(payload)})
	}
}

func (r *fakeRadio) deliverError() {
	if r.recvCB != nil {
		r.recvCB(RadioEvent{Kind: EventRecvReady, Error: true})
	}
}

// fakeAntenna is a no-op AntennaSwitch recording the last selection.
type fakeAntenna struct {
	last Chip
}

func (a *fakeAntenna) Select(c Chip) error { a.last = c; return nil }
