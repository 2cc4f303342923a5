package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Concrete Radio driver for the DSSS chip (CYRF6936-class),
 *		register map grounded on the original firmware's constants
 *		for channel, SOP/data code, and CRC seed registers (the
 *		silicon's exact register addresses are Non-goal per
 *		spec.md §1; this models the contract spec.md §4.3 actually
 *		requires: channel, SOP code, data code, short code, CRC
 *		seed, strobe into RX/TX, and status polling for FIFO
 *		length / CRC-good).
 *
 *------------------------------------------------------------------*/

// cyrf6936 register addresses, the handful spec.md §4.3/§6 actually name a
// behavioral contract for.
const (
	cyrfRegChannel    = 0x00
	cyrfRegTxLength   = 0x01
	cyrfRegTxCtrl     = 0x02
	cyrfRegTxCfg      = 0x03
	cyrfRegRxCtrl     = 0x04
	cyrfRegRxCfg      = 0x05
	cyrfRegRxStatus   = 0x07
	cyrfRegRxCount    = 0x09
	cyrfRegCRCSeedLSB = 0x0D
	cyrfRegCRCSeedMSB = 0x0E
	cyrfRegSOPCode    = 0x17
	cyrfRegDataCode   = 0x18
	cyrfRegMfgIDL     = 0x25
	cyrfRegMfgIDH     = 0x26

	cyrfRxStatusBadCRC    = 0x08
	cyrfRxStatusOverflow  = 0x10
	cyrfRxStatusPktGood   = 0x20
)

// CYRF6936 drives the DSSS chip over an SPIBus.
type CYRF6936 struct {
	busMutex
	bus SPIBus

	mode Mode

	recvCB func(RadioEvent)
	sendCB func(RadioEvent)

	lastCRCOK bool
	lastLen   int
}

// NewCYRF6936 constructs a driver bound to the given SPI bus.
func NewCYRF6936(bus SPIBus) *CYRF6936 {
	return &CYRF6936{bus: bus}
}

func (c *CYRF6936) writeReg(addr, value byte) error {
	g := c.guard()
	defer g.Release()
	_, err := c.bus.Tx([]byte{0x80 | addr, value})
	return err
}

func (c *CYRF6936) writeBurst(addr byte, data []byte) error {
	g := c.guard()
	defer g.Release()
	buf := append([]byte{0x80 | addr}, data...)
	_, err := c.bus.Tx(buf)
	return err
}

func (c *CYRF6936) readReg(addr byte) (byte, error) {
	g := c.guard()
	defer g.Release()
	rx, err := c.bus.Tx([]byte{addr, 0x00})
	if err != nil || len(rx) < 2 {
		return 0, err
	}
	return rx[1], nil
}

// Reset re-initializes the chip's register set.
func (c *CYRF6936) Reset() error {
	return c.writeReg(cyrfRegTxCtrl, 0x00)
}

// ManufacturerID reads back the chip identity registers (§7 Fatal case).
func (c *CYRF6936) ManufacturerID() (uint16, error) {
	lo, err := c.readReg(cyrfRegMfgIDL)
	if err != nil {
		return 0, err
	}
	hi, err := c.readReg(cyrfRegMfgIDH)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// SetMode strobes the chip between idle, receive and transmit.
func (c *CYRF6936) SetMode(m Mode) error {
	c.mode = m
	switch m {
	case ModeRX:
		return c.writeReg(cyrfRegRxCtrl, 0x80)
	case ModeTX:
		return c.writeReg(cyrfRegTxCtrl, 0x80)
	default:
		return c.writeReg(cyrfRegRxCtrl, 0x00)
	}
}

// SetChannel programs the channel register.
func (c *CYRF6936) SetChannel(channel byte) error {
	return c.writeReg(cyrfRegChannel, channel)
}

// Program writes the per-hop SOP/data/short codes and CRC seed (§4.3).
func (c *CYRF6936) Program(p RFParams) error {
	if err := c.SetChannel(p.Channel); err != nil {
		return err
	}
	if err := c.writeBurst(cyrfRegSOPCode, p.SOPCode[:]); err != nil {
		return err
	}
	code := p.DataCode
	if p.UseShort {
		code = p.ShortCode
	}
	if err := c.writeBurst(cyrfRegDataCode, code[:]); err != nil {
		return err
	}
	if err := c.writeReg(cyrfRegCRCSeedLSB, byte(p.CRCSeed)); err != nil {
		return err
	}
	return c.writeReg(cyrfRegCRCSeedMSB, byte(p.CRCSeed>>8))
}

// StartReceive arms the chip to receive (§2.1).
func (c *CYRF6936) StartReceive() error {
	return c.writeReg(cyrfRegRxCfg, 0x80)
}

// AbortReceive cancels a pending receive and flushes the RX FIFO.
func (c *CYRF6936) AbortReceive() error {
	return c.writeReg(cyrfRegRxCfg, 0x00)
}

// Send loads the transmit FIFO and strobes transmit.
func (c *CYRF6936) Send(buf []byte) error {
	if err := c.writeReg(cyrfRegTxLength, byte(len(buf))); err != nil {
		return err
	}
	if err := c.writeBurst(cyrfRegTxCfg, buf); err != nil {
		return err
	}
	return c.writeReg(cyrfRegTxCtrl, 0x80)
}

// ReadPayload retrieves the received frame.
func (c *CYRF6936) ReadPayload(length int) ([]byte, error) {
	g := c.guard()
	defer g.Release()
	rx, err := c.bus.Tx(append([]byte{cyrfRegRxCount}, make([]byte, length)...))
	if err != nil || len(rx) < 1+length {
		return nil, err
	}
	return rx[1 : 1+length], nil
}

// CRCOK reports the last received frame's hardware CRC result.
func (c *CYRF6936) CRCOK() bool {
	return c.lastCRCOK
}

// OnRecvReady registers the receive-complete callback.
func (c *CYRF6936) OnRecvReady(cb func(RadioEvent)) { c.recvCB = cb }

// OnSendDone registers the transmit-complete callback.
func (c *CYRF6936) OnSendDone(cb func(RadioEvent)) { c.sendCB = cb }

// Calibrate is a no-op for the DSSS chip: §4.5's per-hop calibration is a
// FSK-chip-only concept (the CYRF6936's CRC is computed in hardware per
// packet, with no synthesizer calibration step exposed at this layer).
func (c *CYRF6936) Calibrate() (byte, error) {
	return 0, nil
}

// deliverRecv is called by the polled-status probe (or, on real hardware,
// an interrupt handler) when a receive completes.
func (c *CYRF6936) deliverRecv(length int, crcOK bool, overflow bool) {
	c.lastLen = length
	c.lastCRCOK = crcOK
	if c.recvCB != nil {
		c.recvCB(RadioEvent{Kind: EventRecvReady, Length: length, Error: overflow || !crcOK})
	}
}

// deliverSend is called when a transmission completes.
func (c *CYRF6936) deliverSend(err bool) {
	if c.sendCB != nil {
		c.sendCB(RadioEvent{Kind: EventSendDone, Error: err})
	}
}

// PollStatus inspects the chip's status registers and raises recv/send
// callbacks, the hosted equivalent of the interrupt handler the original
// firmware installs (§2.1: "raises from either a hardware interrupt
// handler or a polled probe that inspects its status registers").
func (c *CYRF6936) PollStatus() error {
	status, err := c.readReg(cyrfRegRxStatus)
	if err != nil {
		return err
	}
	if status&cyrfRxStatusPktGood == 0 && status&cyrfRxStatusBadCRC == 0 {
		return nil
	}
	count, err := c.readReg(cyrfRegRxCount)
	if err != nil {
		return err
	}
	crcOK := status&cyrfRxStatusBadCRC == 0
	overflow := status&cyrfRxStatusOverflow != 0
	c.deliverRecv(int(count), crcOK, overflow)
	return nil
}
