package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Radio abstraction (RA) contract shared by the DSSS chip
 *		driver (cyrf6936.go) and the FSK chip driver (cc2500.go).
 *
 *		A protocol module only ever talks to a Radio; it never
 *		reaches for chip-specific registers directly, so the same
 *		state machine shape (dsm_hack.go vs frsky_hack.go) can be
 *		reused against either chip family.
 *
 *------------------------------------------------------------------*/

// Mode is the coarse operating state of a radio chip.
type Mode int

const (
	ModeOff Mode = iota
	ModeRX
	ModeTX
)

// RadioEvent is emitted by a Radio's registered callbacks. Exactly one of
// the two variant fields is meaningful, selected by Kind.
type RadioEvent struct {
	Kind   RadioEventKind
	Length int  // RecvReady: payload length as read from the chip, also set on error
	Error  bool // RecvReady: CRC/framing error; SendDone: transmit failed
}

type RadioEventKind int

const (
	EventRecvReady RadioEventKind = iota
	EventSendDone
)

// RFParams bundles the per-hop RF-section parameters a protocol programs
// before each receive/transmit (§4.3): DSSS code columns and CRC seed for
// the CYRF6936, or the FrSky tuning state for the CC2500. Fields unused by
// a given chip are left zero; each driver interprets only the ones it owns.
type RFParams struct {
	Channel  byte
	SOPCode  [8]byte
	DataCode [8]byte
	ShortCode [8]byte
	UseShort bool
	CRCSeed  uint16

	FSCal1 byte
	FSCal2 byte
	FSCal3 byte
	FSCtrl0 int8
}

// Radio is the contract every protocol module (dsm_hack.go, frsky_hack.go,
// dsm_scanner.go, cc_scanner.go, ...) is handed at init and holds for its
// lifetime (§9 "dispatcher-owned radio handles with borrow discipline").
type Radio interface {
	// Reset power-cycles and re-initializes the chip's register set.
	Reset() error

	// ManufacturerID reads back the chip's identity registers, used at
	// bringup to confirm the chip responds (§7 Fatal error case).
	ManufacturerID() (uint16, error)

	// SetMode switches between idle, receive and transmit.
	SetMode(Mode) error

	// SetChannel programs the chip's channel register.
	SetChannel(channel byte) error

	// Program writes the per-hop RF parameters (§4.3 / §4.5 per-hop
	// calibration) ahead of a receive or transmit on the given channel.
	Program(RFParams) error

	// StartReceive arms the chip to receive on its currently programmed
	// channel; the result arrives via the registered receive callback.
	StartReceive() error

	// AbortReceive cancels a pending receive and flushes the RX FIFO
	// (§5 cancellation, §7 hardware-transient recovery).
	AbortReceive() error

	// Send loads the transmit FIFO and strobes the chip into transmit;
	// completion arrives via the registered send callback.
	Send(buf []byte) error

	// ReadPayload retrieves the most recently received frame, up to
	// length bytes as reported by the last RecvReady event.
	ReadPayload(length int) ([]byte, error)

	// CRCOK reports whether the chip's last received frame's hardware
	// CRC check passed (FSK chip's "CRC OK" status bit, §4.5).
	CRCOK() bool

	// OnRecvReady registers the receive-complete callback. A nil handler
	// clears any previously registered one.
	OnRecvReady(func(RadioEvent))

	// OnSendDone registers the transmit-complete callback.
	OnSendDone(func(RadioEvent))

	// Calibrate strobes the chip's frequency-synthesizer calibration
	// sequence on the currently programmed channel and returns the
	// resulting fscal1 byte (§4.5 per-hop calibration).
	Calibrate() (fscal1 byte, err error)
}
