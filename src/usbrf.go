// Package usbrf is the firmware core for a USB-attached 2.4 GHz radio
// interception and spoofing dongle carrying two transceivers: a
// direct-sequence spread-spectrum chip (DSSS, compatible with the
// Spektrum/DSM2/DSMX RC family) and an FSK narrowband chip (compatible with
// the FrSky RC family).
//
// The device passively synchronizes to a target transmitter's
// frequency-hopping pattern, mirrors its hop clock, and can then transmit
// forged control frames to take over a target receiver. A host computer
// drives the device over a USB serial link using the framed message
// protocol in hostlink.go.
package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Top level bringup: wires the support helpers, radio
 *		abstraction, tick timer, antenna mux and host link into
 *		the protocol dispatcher.
 *
 *------------------------------------------------------------------*/

const (
	FirmwareVersion = "1.0"

	// BoardID identifies the PCB revision the firmware was built for,
	// reported in the INFO message (see deviceinfo.go).
	BoardID = 0x01
)

// Device bundles the external collaborators (§6) that every protocol slot
// is handed at init time: its two chips, the tick timer, the antenna mux
// and the host link. It owns the dispatcher and the persisted config.
type Device struct {
	Cyrf   Radio // DSSS chip (cyrf6936.go)
	Cc     Radio // FSK chip (cc2500.go)
	Ticker *Ticker
	Ant    AntennaSwitch
	Link   *HostLink
	Config *Config

	Dispatcher *Dispatcher
}

// NewDevice wires the standard six-slot protocol table (§4) against the given
// collaborators. Callers that only need a subset (e.g. unit tests driving a
// single protocol) can construct Dispatcher directly instead.
func NewDevice(cyrf, cc Radio, ticker *Ticker, ant AntennaSwitch, link *HostLink, cfg *Config) *Device {
	d := &Device{
		Cyrf:   cyrf,
		Cc:     cc,
		Ticker: ticker,
		Ant:    ant,
		Link:   link,
		Config: cfg,
	}

	dsmHack := NewDsmHacker(cyrf, ticker, ant)
	dsmScanner := NewDsmScanner(cyrf, ticker, ant)
	ccScanner := NewCcScanner(cc, ticker, ant)
	frskyHack := NewFrskyHacker(cc, ticker, ant, cfg)
	frskyRecv := NewFrskyReceiver(cc, ticker, ant, cfg)
	frskyTx := NewFrskyTransmitter(cc, ticker, ant, cfg)

	d.Dispatcher = NewDispatcher([]*ProtocolSlot{
		dsmScanner.Slot(),
		dsmHack.Slot(),
		ccScanner.Slot(),
		frskyHack.Slot(),
		frskyRecv.Slot(),
		frskyTx.Slot(),
	})

	if link != nil {
		link.AttachDispatcher(d.Dispatcher)
	}

	return d
}

// Run services one iteration of the main-loop poll stage (§5): host-link
// byte pump, message parser and the active protocol's run entry point.
// Radio and timer callbacks are delivered out of band, from whatever
// context the RA/TT implementations raise them from.
func (d *Device) Run() {
	if d.Link != nil {
		d.Link.Pump()
	}
	d.Dispatcher.Run()
}
